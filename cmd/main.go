// cmd/main.go

package main

import (
	"log"
	"net/http"
	"os"

	"AveGrid/pkg/env"
	"AveGrid/pkg/utils"
	"AveGrid/pkg/version"

	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var logger = utils.GetLogger("avegrid")

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"debug", "v"},
			Usage:   "enable debug log",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "only warning and errors",
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "enable trace log",
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "path of log file",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "/etc/avegrid/env.yaml",
			Usage:   "YAML file of the memory environment",
		},
		&cli.StringFlag{
			Name:  "memory-budget",
			Usage: "memory grids may use, e.g. 512M (overrides the config file)",
		},
		&cli.StringFlag{
			Name:  "probe",
			Usage: "how available memory is measured (accounting, runtime, system)",
		},
		&cli.BoolFlag{
			Name:  "gops",
			Usage: "start a gops agent for diagnostics",
		},
		&cli.StringFlag{
			Name:  "metrics",
			Usage: "address to export prometheus metrics on, e.g. 127.0.0.1:9567",
		},
	}
}

func main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print only the version",
	}
	app := &cli.App{
		Name:                 "avegrid",
		Usage:                "A chunked raster grid store that stays within a memory budget.",
		Version:              version.Version(),
		EnableBashCompletion: true,
		Flags:                globalFlags(),
		Commands: []*cli.Command{
			formatFlags(),
			statusFlags(),
			createFlags(),
			importFlags(),
			exportFlags(),
			infoFlags(),
			rescaleFlags(),
			maskFlags(),
			removeFlags(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

var setupDone bool

func setLoggerLevel(c *cli.Context) {
	if c.Bool("trace") {
		utils.SetLogLevel(logrus.TraceLevel)
	} else if c.Bool("verbose") {
		utils.SetLogLevel(logrus.DebugLevel)
	} else if c.Bool("quiet") {
		utils.SetLogLevel(logrus.WarnLevel)
	} else {
		utils.SetLogLevel(logrus.InfoLevel)
	}
	if p := c.String("log"); p != "" {
		utils.SetOutFile(p)
	}
	if setupDone {
		return
	}
	setupDone = true
	if c.Bool("gops") {
		if err := agent.Listen(agent.Options{}); err != nil {
			logger.Warnf("start gops agent: %s", err)
		}
	}
	if addr := c.String("metrics"); addr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Errorf("metrics server on %s: %s", addr, err)
			}
		}()
		logger.Infof("Prometheus metrics listening on %s/metrics", addr)
	}
}

// newEnv builds the memory environment from the config file and the global flags.
func newEnv(c *cli.Context) *env.Environment {
	conf, err := env.LoadConfig(c.String("config"))
	if err != nil {
		logger.Fatalf("load config: %s", err)
	}
	if v := c.String("memory-budget"); v != "" {
		size, err := env.ParseSize(v)
		if err != nil {
			logger.Fatalf("memory-budget: %s", err)
		}
		conf.MemoryBudget = size
	}
	if v := c.String("probe"); v != "" {
		conf.Probe = v
	}
	e, err := env.New(conf)
	if err != nil {
		logger.Fatalf("memory environment: %s", err)
	}
	logger.Debugf("memory environment: budget %d, probe %s, %d bytes available",
		conf.MemoryBudget, conf.Probe, e.Available())
	return e
}

func needArgs(c *cli.Context, n int, usage string) {
	if c.Args().Len() < n {
		logger.Fatalf("%s is needed", usage)
	}
}
