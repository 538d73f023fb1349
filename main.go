// AquaOx
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/hhkbp2/go-logging"
	"github.com/udawtr/aquaox-go/aquaox"
	"github.com/udawtr/aquaox-go/internal/config"
	"github.com/udawtr/aquaox-go/internal/observability"
	"github.com/udawtr/aquaox-go/internal/server"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	parser := argparse.NewParser("aquaox", "Dissolved oxygen saturation and paddlewheel aerator performance for shrimp ponds")

	configPath := parser.String("c", "config", &argparse.Options{
		Default: "",
		Help:    "YAML configuration file"})

	dataPath := parser.String("d", "data", &argparse.Options{
		Default: "",
		Help:    "Saturation table (.json, .yaml, optionally .gz)"})

	logLevel := parser.Selector("", "log", []string{"DEBUG", "INFO", "WARN", "ERROR", "CRITICAL"}, &argparse.Options{
		Help: "Log level"})

	// saturation
	satCmd := parser.NewCommand("saturation", "Look up oxygen saturation (mg/L)")
	satTemp := satCmd.Float("t", "temperature", &argparse.Options{Required: true, Help: "Water temperature (°C)"})
	satSal := satCmd.Float("s", "salinity", &argparse.Options{Required: true, Help: "Salinity (ppt)"})

	// sotr
	sotrCmd := parser.NewCommand("sotr", "Estimate SOTR without test data")
	sotrTemp := sotrCmd.Float("t", "temperature", &argparse.Options{Required: true, Help: "Water temperature (°C)"})
	sotrSal := sotrCmd.Float("s", "salinity", &argparse.Options{Required: true, Help: "Salinity (ppt)"})
	sotrVolume := sotrCmd.Float("", "volume", &argparse.Options{Required: true, Help: "Pond volume (m³)"})
	sotrEff := sotrCmd.Float("", "efficiency", &argparse.Options{Default: math.NaN(), Help: "Transfer efficiency (default from config, 0.9)"})

	// aerate
	aerCmd := parser.NewCommand("aerate", "Evaluate a t10/t70 re-aeration test")
	aerTemp := aerCmd.Float("t", "temperature", &argparse.Options{Required: true, Help: "Water temperature (°C)"})
	aerSal := aerCmd.Float("s", "salinity", &argparse.Options{Required: true, Help: "Salinity (ppt)"})
	aerHP := aerCmd.Float("", "hp", &argparse.Options{Required: true, Help: "Rated aerator power (hp)"})
	aerVolume := aerCmd.Float("", "volume", &argparse.Options{Required: true, Help: "Pond volume (m³)"})
	aerT10 := aerCmd.Float("", "t10", &argparse.Options{Required: true, Help: "Time to 10% recovery (min)"})
	aerT70 := aerCmd.Float("", "t70", &argparse.Options{Required: true, Help: "Time to 70% recovery (min)"})
	aerPrice := aerCmd.Float("", "price", &argparse.Options{Default: math.NaN(), Help: "Electricity price per kWh (default from config)"})
	aerID := aerCmd.String("", "aerator", &argparse.Options{Default: "", Help: "Aerator identifier \"<brand> <type>\""})
	aerJSON := aerCmd.Flag("", "json", &argparse.Options{Help: "Print JSON instead of labelled lines"})

	// size
	sizeCmd := parser.NewCommand("size", "Recommend pond volume for an aerator or aerator power for a pond")
	sizeHP := sizeCmd.String("", "hp", &argparse.Options{Default: "", Help: "Aerator power (hp)"})
	sizeVolume := sizeCmd.String("", "volume", &argparse.Options{Default: "", Help: "Pond volume (m³)"})

	// batch
	batchCmd := parser.NewCommand("batch", "Evaluate re-aeration tests from a CSV file")
	batchIn := batchCmd.String("i", "input", &argparse.Options{Required: true, Help: "Input CSV"})
	batchOut := batchCmd.String("o", "output", &argparse.Options{Default: "", Help: "Output file (default stdout)"})
	batchFormat := batchCmd.Selector("f", "format", []string{"CSV", "JSON"}, &argparse.Options{Default: "CSV", Help: "Output format CSV or JSON"})
	batchWorkers := batchCmd.Int("", "workers", &argparse.Options{Default: 0, Help: "Concurrent evaluations (default from config)"})

	// table
	tableCmd := parser.NewCommand("table", "Describe the saturation table")

	// serve
	serveCmd := parser.NewCommand("serve", "Run the HTTP API")
	serveAddr := serveCmd.String("", "addr", &argparse.Options{Default: "", Help: "Listen address (default from config)"})

	if err := parser.Parse(args); err != nil {
		fmt.Fprint(stderr, parser.Usage(err))
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *dataPath != "" {
		cfg.DataPath = *dataPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := observability.SetLogLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch {
	case satCmd.Happened():
		err = runSaturation(cfg, stdout, *satTemp, *satSal)
	case sotrCmd.Happened():
		efficiency := cfg.Efficiency
		if !math.IsNaN(*sotrEff) {
			efficiency = *sotrEff
		}
		err = runSOTR(cfg, stdout, *sotrTemp, *sotrSal, *sotrVolume, efficiency)
	case aerCmd.Happened():
		test := aquaox.AerationTest{
			Temperature: *aerTemp,
			Salinity:    *aerSal,
			Horsepower:  *aerHP,
			Volume:      *aerVolume,
			T10:         *aerT10,
			T70:         *aerT70,
			KWhPrice:    cfg.KWhPrice,
			AeratorID:   *aerID,
		}
		if !math.IsNaN(*aerPrice) {
			test.KWhPrice = *aerPrice
		}
		err = runAerate(cfg, stdout, test, *aerJSON)
	case sizeCmd.Happened():
		err = runSize(stdout, *sizeHP, *sizeVolume)
	case batchCmd.Happened():
		workers := cfg.Workers
		if *batchWorkers > 0 {
			workers = *batchWorkers
		}
		err = runBatch(cfg, stdout, stderr, *batchIn, *batchOut, *batchFormat, workers)
	case tableCmd.Happened():
		err = runTable(cfg, stdout)
	case serveCmd.Happened():
		if *serveAddr != "" {
			cfg.HTTPAddr = *serveAddr
		}
		err = runServe(cfg)
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func loadPond(cfg *config.Config) (*aquaox.SaturationTable, *aquaox.ShrimpPond, error) {
	table, err := aquaox.LoadSaturationTable(cfg.DataPath)
	if err != nil {
		return nil, nil, err
	}
	return table, aquaox.NewShrimpPond(table), nil
}

func runSaturation(cfg *config.Config, stdout io.Writer, temperature, salinity float64) error {
	table, pond, err := loadPond(cfg)
	if err != nil {
		return err
	}
	cs, err := pond.Saturation(temperature, salinity)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %s\n", formatFloat(cs), table.Unit())
	return nil
}

func runSOTR(cfg *config.Config, stdout io.Writer, temperature, salinity, volume, efficiency float64) error {
	_, pond, err := loadPond(cfg)
	if err != nil {
		return err
	}
	sotr, err := pond.BasicSOTR(temperature, salinity, volume, efficiency)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %s\n", aquaox.LabelSOTR, formatFloat(sotr))
	return nil
}

func runAerate(cfg *config.Config, stdout io.Writer, test aquaox.AerationTest, asJSON bool) error {
	_, pond, err := loadPond(cfg)
	if err != nil {
		return err
	}
	m, err := pond.AerationMetrics(test)
	if err != nil {
		return err
	}

	if asJSON {
		raw, err := m.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(raw))
		return err
	}
	_, err = m.WriteTo(stdout)
	return err
}

func runSize(stdout io.Writer, hp, volume string) error {
	switch {
	case hp != "" && volume != "":
		return errors.New("give either --hp or --volume, not both")
	case hp != "":
		v, err := strconv.ParseFloat(hp, 64)
		if err != nil {
			return fmt.Errorf("invalid --hp %q", hp)
		}
		fmt.Fprintf(stdout, "Ideal volume (m³): %s\n", formatFloat(aquaox.IdealVolume(v)))
	case volume != "":
		v, err := strconv.ParseFloat(volume, 64)
		if err != nil {
			return fmt.Errorf("invalid --volume %q", volume)
		}
		fmt.Fprintf(stdout, "Ideal power (hp): %d\n", aquaox.IdealHorsepower(v))
	default:
		return errors.New("one of --hp or --volume is required")
	}
	return nil
}

func runBatch(cfg *config.Config, stdout, stderr io.Writer, input, output, format string, workers int) error {
	logger := logging.GetLogger(observability.LoggerName)

	_, pond, err := loadPond(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	tests, err := aquaox.ReadAerationTests(f)
	if err != nil {
		return err
	}
	logger.Infof("evaluating %d aeration tests with %d workers", len(tests), workers)

	report, err := aquaox.EvaluateBatch(context.Background(), pond, tests, workers)
	if err != nil {
		return err
	}

	var buf *bytes.Buffer = bytes.NewBuffer([]byte{})
	if format == "JSON" {
		err = report.ToJSON(buf)
	} else {
		err = report.ToCSV(buf)
	}
	if err != nil {
		return err
	}

	if n := report.Failed(); n > 0 {
		logger.Infof("%d of %d tests failed", n, len(report.Results))
		fmt.Fprintf(stderr, "%d of %d tests failed\n", n, len(report.Results))
	}

	if output == "" {
		_, err = buf.WriteTo(stdout)
		return err
	}
	logger.Infof("saving %s: %s", format, output)
	return os.WriteFile(output, buf.Bytes(), 0o644)
}

func runTable(cfg *config.Config, stdout io.Writer) error {
	table, _, err := loadPond(cfg)
	if err != nil {
		return err
	}
	s := table.Summary()
	fmt.Fprintf(stdout, "Source: %s\n", cfg.DataPath)
	fmt.Fprintf(stdout, "Cells: %d temperatures x %d salinities\n", s.Rows, s.Cols)
	fmt.Fprintf(stdout, "Temperature step (°C): %s\n", formatFloat(s.TemperatureStep))
	fmt.Fprintf(stdout, "Salinity step (ppt): %s\n", formatFloat(s.SalinityStep))
	fmt.Fprintf(stdout, "Range (%s): %s - %s\n", s.Unit, formatFloat(s.Min), formatFloat(s.Max))
	return nil
}

func runServe(cfg *config.Config) error {
	logger := logging.GetLogger(observability.LoggerName)

	metrics := observability.NewMetrics()
	srv := server.NewServer(cfg.HTTPAddr, metrics, cfg.Efficiency)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	table, err := aquaox.LoadSaturationTable(cfg.DataPath)
	if err != nil {
		shutdown(srv, cfg)
		return err
	}
	srv.SetTable(table)

	select {
	case <-ctx.Done():
		logger.Infof("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	if err := shutdown(srv, cfg); err != nil {
		return err
	}
	logger.Infof("shutdown complete")
	return nil
}

func shutdown(srv *server.Server, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
