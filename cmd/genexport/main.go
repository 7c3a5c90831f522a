// Command genexport writes a synthetic weather station hourly export in the
// Latin-1, semicolon separated, decimal comma layout the ETL ingests. The
// output is deterministic for a given seed, so test fixtures and demo data
// stay stable across runs.
//
// Usage:
//
//	go run ./cmd/genexport -out data/export.csv -days 30 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/station-climate-etl/internal/adapter/exportfile"
)

var baseDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// exportHeaders mirrors the column titles of a real station export,
// accents and unit suffixes included.
var exportHeaders = []string{
	"Data",
	"Hora UTC",
	"PRECIPITAÇÃO TOTAL, HORÁRIO (mm)",
	"PRESSAO ATMOSFERICA AO NIVEL DA ESTACAO, HORARIA (mB)",
	"RADIACAO GLOBAL (Kj/m²)",
	"TEMPERATURA DO AR - BULBO SECO, HORARIA (°C)",
	"TEMPERATURA DO PONTO DE ORVALHO (°C)",
	"UMIDADE RELATIVA DO AR, HORARIA (%)",
	"VENTO, DIREÇÃO HORARIA (gr) (° (gr))",
	"VENTO, RAJADA MAXIMA (m/s)",
	"VENTO, VELOCIDADE HORARIA (m/s)",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "export.csv", "output path for the generated export")
	days := flag.Int("days", 30, "number of days to generate, 24 rows each")
	seed := flag.Int64("seed", 1, "random seed")
	nullRate := flag.Float64("null-rate", 0.05, "fraction of value cells left empty")
	flag.Parse()

	if *days < 1 {
		return fmt.Errorf("-days must be at least 1, got %d", *days)
	}
	if *nullRate < 0 || *nullRate >= 1 {
		return fmt.Errorf("-null-rate must be in [0, 1), got %g", *nullRate)
	}

	if dir := filepath.Dir(*out); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	rows, err := generate(f, *days, *seed, *nullRate)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", *out, err)
	}

	log.Printf("wrote %s: %d rows over %d days (seed %d, null rate %g)",
		*out, rows, *days, *seed, *nullRate)
	return nil
}

func generate(dst *os.File, days int, seed int64, nullRate float64) (int, error) {
	rng := rand.New(rand.NewSource(seed))
	w := exportfile.NewWriter(dst, exportfile.EncodingLatin1)

	// Real exports end every line with a separator; an empty trailing
	// field reproduces that.
	header := append(append([]string{}, exportHeaders...), "")
	if err := w.Write(header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	// A warm spell in the first third and a cold one in the last third
	// give the wave detector something to find on default settings.
	heatStart := days / 3
	coldStart := (days * 2) / 3

	cell := func(v float64, decimals int) string {
		if rng.Float64() < nullRate {
			return ""
		}
		return exportfile.FormatNumber(v, decimals)
	}

	rows := 0
	for d := 0; d < days; d++ {
		date := baseDate.AddDate(0, 0, d)

		bias := 0.0
		switch {
		case days >= 14 && d >= heatStart && d < heatStart+4:
			bias = 8
		case days >= 14 && d >= coldStart && d < coldStart+4:
			bias = -8
		}

		for h := 0; h < 24; h++ {
			temp := 22 + bias + 6*math.Sin(2*math.Pi*float64(h-10)/24) + rng.NormFloat64()*0.8
			humidity := clamp(70-2*(temp-22)+rng.NormFloat64()*4, 20, 100)
			dewPoint := temp - (100-humidity)/5
			pressure := 1013 + 3*math.Sin(2*math.Pi*float64(h)/24+1) + rng.NormFloat64()*0.6
			windSpeed := 2 + rng.Float64()*4
			gust := windSpeed * (1.3 + rng.Float64()*0.5)
			direction := rng.Float64() * 360

			rain := 0.0
			if rng.Float64() < 0.15 {
				rain = rng.Float64() * 8
			}

			radiation := 0.0
			if h >= 6 && h <= 18 {
				radiation = math.Max(0, 800*math.Sin(math.Pi*float64(h-6)/12)+rng.NormFloat64()*40)
			}

			record := []string{
				date.Format("2006/01/02"),
				fmt.Sprintf("%02d00 UTC", h),
				cell(rain, 1),
				cell(pressure, 1),
				cell(radiation, 1),
				cell(temp, 1),
				cell(dewPoint, 1),
				cell(humidity, 0),
				cell(direction, 0),
				cell(gust, 1),
				cell(windSpeed, 1),
				"",
			}
			if err := w.Write(record); err != nil {
				return rows, fmt.Errorf("write row %d: %w", rows+2, err)
			}
			rows++
		}
	}

	if err := w.Close(); err != nil {
		return rows, fmt.Errorf("flush export: %w", err)
	}
	return rows, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
