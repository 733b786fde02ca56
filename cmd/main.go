package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ipfeeds/geomerge"
	"github.com/ipfeeds/geomerge/util"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	configFlag = flag.String("config", "", "configuration file path")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *flagDebug {
		log.SetLevel(log.DebugLevel)
	}

	viper.SetDefault("mode", "merge")
	viper.SetDefault("output", "geoip_merged.csv")
	viper.SetDefault("decimal_columns", true)
	viper.SetDefault("bind", ":8080")
	viper.SetDefault("cache_size", 1024)
	viper.SetDefault("reload_token", util.RandomSequence(32))

	viper.SetConfigName("geomerge")        // name of config file (without extension)
	viper.SetConfigType("yaml")            // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath("/etc/geomerge/")  // path to look for the config file in
	viper.AddConfigPath("$HOME/.geomerge") // call multiple times to add many search paths
	viper.AddConfigPath(".")               // optionally look for config in the working directory

	if *configFlag != "" {
		viper.SetConfigFile(*configFlag)
	}

	log.Info("Reading configuration")

	if err := viper.ReadInConfig(); err != nil {
		log.WithError(err).Fatalln("Unable to load config file")
	}

	config := &geomerge.Config{}

	if err := viper.Unmarshal(config); err != nil {
		log.WithError(err).Fatalln("Unable to unmarshal configuration")
	}

	switch config.Mode {
	case "serve":
		serve(config)
	case "merge", "":
		merge(config)
	default:
		log.WithField("mode", config.Mode).Fatalln("Unknown mode")
	}
}

func merge(config *geomerge.Config) {
	if config.LocationsPath == "" || config.BlocksPath == "" {
		log.Fatalln("Both locations and blocks paths must be configured")
	}

	if config.Fetch.Enabled() {
		log.Info("Updating root certificates")

		certs, err := util.LoadCACerts()

		if err != nil {
			log.WithError(err).Fatalln("Unable to load certificates")
		}

		config.SetRootCAs(certs)
	}

	ts := config.Timestamp

	if ts == "" {
		ts = askTimestamp()
	}

	ts, err := geomerge.NormalizeTimestamp(ts, time.Now)

	if err != nil {
		log.WithError(err).Fatalln("Invalid snapshot timestamp")
	}

	config.Timestamp = ts

	if err := geomerge.New(config).Run(); err != nil {
		log.WithError(err).Fatalln("Merge failed")
	}
}

// askTimestamp prompts for the snapshot time. Empty input means "now".
func askTimestamp() string {
	fmt.Fprintf(os.Stderr, "Snapshot time (%s) [Enter = now]: ", "DD.MM.YYYY HH:MM:SS")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')

	if err != nil {
		return ""
	}

	return strings.TrimSpace(line)
}

func serve(config *geomerge.Config) {
	server := geomerge.NewServer(config)

	if _, err := server.Start(); err != nil {
		log.WithError(err).Fatalln("Unable to start lookup server")
	}

	log.Info("Ready")

	c := make(chan os.Signal, 1)

	signal.Notify(c, syscall.SIGKILL, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-c

		if sig != syscall.SIGHUP {
			break
		}

		if err := server.ReloadTable(); err != nil {
			log.WithError(err).Warning("Did not reload table due to error")
		}
	}
}
