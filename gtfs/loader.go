package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var gtfsFiles = []string{"routes.txt", "trips.txt", "stops.txt", "stop_times.txt"}

// Load builds an index from a GTFS dataset at path, which may be either a
// zip archive or a directory of extracted .txt files.
func Load(path string) (*Index, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return loadFromDir(path)
	}
	return loadFromZip(path)
}

func loadFromZip(path string) (*Index, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	g := NewIndex()
	for _, f := range zr.File {
		name := strings.ToLower(filepath.Base(f.Name))
		if !isGTFSFile(name) {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return nil, err
		}
		err = g.consumeCSV(name, r)
		_ = r.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	g.Finalize()
	return g, nil
}

func loadFromDir(dir string) (*Index, error) {
	g := NewIndex()
	for _, name := range gtfsFiles {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		err = g.consumeCSV(name, f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	g.Finalize()
	return g, nil
}

func isGTFSFile(name string) bool {
	for _, f := range gtfsFiles {
		if name == f {
			return true
		}
	}
	return false
}

func (g *Index) consumeCSV(name string, r io.Reader) error {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		return nil
	}
	head := rec[0]
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	field := func(row []string, i int) string {
		if i >= 0 && i < len(row) {
			return row[i]
		}
		return ""
	}

	switch name {
	case "routes.txt":
		rID := idx("route_id")
		rSN := idx("route_short_name")
		rLN := idx("route_long_name")
		rType := idx("route_type")
		if rID < 0 {
			return nil
		}
		for _, row := range rec[1:] {
			rt, _ := strconv.Atoi(field(row, rType))
			g.AddRoute(Route{
				ID:        field(row, rID),
				ShortName: field(row, rSN),
				LongName:  field(row, rLN),
				Type:      rt,
			})
		}
	case "trips.txt":
		rID := idx("route_id")
		tID := idx("trip_id")
		dir := idx("direction_id")
		hs := idx("trip_headsign")
		if tID < 0 || rID < 0 {
			return nil
		}
		for _, row := range rec[1:] {
			d, _ := strconv.Atoi(field(row, dir))
			g.AddTrip(field(row, tID), field(row, rID), d, field(row, hs))
		}
	case "stops.txt":
		sID := idx("stop_id")
		sN := idx("stop_name")
		sLat := idx("stop_lat")
		sLon := idx("stop_lon")
		if sID < 0 {
			return nil
		}
		for _, row := range rec[1:] {
			lat, _ := strconv.ParseFloat(field(row, sLat), 64)
			lon, _ := strconv.ParseFloat(field(row, sLon), 64)
			g.AddStop(Stop{ID: field(row, sID), Name: field(row, sN), Lat: lat, Lon: lon})
		}
	case "stop_times.txt":
		tID := idx("trip_id")
		sID := idx("stop_id")
		sq := idx("stop_sequence")
		arr := idx("arrival_time")
		dep := idx("departure_time")
		if tID < 0 || sID < 0 || sq < 0 {
			return nil
		}
		for _, row := range rec[1:] {
			seq, _ := strconv.Atoi(field(row, sq))
			g.AddStopTime(StopTimeEntry{
				TripID:    field(row, tID),
				StopID:    field(row, sID),
				Arrival:   field(row, arr),
				Departure: field(row, dep),
				Sequence:  seq,
			})
		}
	}
	return nil
}
