// Command genmock writes a deterministic synthetic sfctm2 response body:
// comment headers, well-formed observation lines with a sprinkling of
// sentinel values, a few truncated lines and the end marker. The output
// feeds demos and test fixtures without an API key.
//
// Usage:
//
//	go run ./cmd/genmock -tm 202211300900 -stations 50 -out data_raw/mock.txt
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/weatherlab/sfc-etl/internal/adapter/filestore"
	"github.com/weatherlab/sfc-etl/internal/domain"
)

// mockOptions controls the shape of a generated body.
type mockOptions struct {
	TM        time.Time
	Hours     int
	Stations  int
	Malformed int
	Seed      uint64
	Schema    *domain.Schema
}

// firstStation matches the numbering of synoptic stations (Seoul is 108).
const firstStation = 90

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tm := flag.String("tm", "202211300900", "first observation hour YYYYMMDDHHMI")
	hours := flag.Int("hours", 1, "number of consecutive hours")
	stations := flag.Int("stations", 10, "stations per hour")
	malformed := flag.Int("malformed", 2, "truncated lines to include")
	seed := flag.Uint64("seed", 1, "random seed")
	schemaVersion := flag.String("schema", domain.SchemaV1, "schema version")
	out := flag.String("out", "", "output path; .gz or .zst compresses (required)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	start, ok := domain.ParseObservationTime(*tm, domain.KST)
	if !ok {
		return fmt.Errorf("invalid -tm %q", *tm)
	}
	schema, err := domain.LookupSchema(*schemaVersion)
	if err != nil {
		return err
	}
	if *hours < 1 || *stations < 1 || *malformed < 0 {
		return fmt.Errorf("-hours and -stations must be positive, -malformed non-negative")
	}

	body := generate(mockOptions{
		TM:        start,
		Hours:     *hours,
		Stations:  *stations,
		Malformed: *malformed,
		Seed:      *seed,
		Schema:    schema,
	})
	if err := filestore.WriteText(*out, body); err != nil {
		return err
	}
	log.Printf("wrote %s: %d observation lines, %d malformed", *out, *hours**stations, *malformed)
	return nil
}

// generate renders the body. The same options always produce the same text.
func generate(o mockOptions) string {
	rng := rand.New(rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15))

	var b strings.Builder
	b.WriteString("#START7777\n")
	b.WriteString("#--------------------------------------------------------------------------------------------------\n")
	b.WriteString("#  " + strings.Join(o.Schema.Names(), " ") + "\n")
	b.WriteString("#--------------------------------------------------------------------------------------------------\n")

	var lines []string
	for h := 0; h < o.Hours; h++ {
		tm := o.TM.Add(time.Duration(h) * time.Hour).Format(domain.TimeLayout)
		for s := 0; s < o.Stations; s++ {
			lines = append(lines, observation(rng, o.Schema, tm, firstStation+s))
		}
	}

	// Truncated lines keep their leading timestamp so they count as
	// candidates and exercise the malformed-row path.
	wellFormed := append([]string(nil), lines...)
	for i := 0; i < o.Malformed && len(wellFormed) > 0; i++ {
		pos := rng.IntN(len(lines) + 1)
		src := strings.Fields(wellFormed[rng.IntN(len(wellFormed))])
		cut := 2 + rng.IntN(len(src)-2)
		trunc := strings.Join(src[:cut], " ")
		lines = append(lines[:pos], append([]string{trunc}, lines[pos:]...)...)
	}

	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString("#7777END\n")
	return b.String()
}

// observation renders one well-formed line.
func observation(rng *rand.Rand, schema *domain.Schema, tm string, stn int) string {
	tokens := make([]string, schema.Width())
	for i, f := range schema.Fields() {
		switch f.Kind {
		case domain.KindTemporal:
			tokens[i] = tm
		case domain.KindIntegerKey:
			tokens[i] = strconv.Itoa(stn)
		case domain.KindCategorical:
			tokens[i] = categorical(rng, f.Name)
		default:
			tokens[i] = measurement(rng, f.Name)
		}
	}
	return strings.Join(tokens, " ")
}

func categorical(rng *rand.Rand, name string) string {
	if name == domain.ColCT {
		return []string{"-", "Sc", "ScAc", "Ci", "StNs"}[rng.IntN(5)]
	}
	return []string{"-", "01", "02", "10", "40"}[rng.IntN(5)]
}

// measurement draws a plausible value; roughly one cell in eight is a
// sentinel in one of the feed's spellings.
func measurement(rng *rand.Rand, name string) string {
	if rng.IntN(8) == 0 {
		return []string{"-9", "-9.0", "-99", "-99.0"}[rng.IntN(4)]
	}
	var v float64
	switch name {
	case "TA", "TD", "TS":
		v = -10 + rng.Float64()*35
	case "HM":
		v = 20 + rng.Float64()*80
	case "PA", "PS":
		v = 990 + rng.Float64()*40
	case "WD", "GST_WD":
		v = float64(rng.IntN(37) * 10)
	case "WS", "GST_WS":
		v = rng.Float64() * 15
	default:
		v = rng.Float64() * 10
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
