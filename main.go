package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thetooth/pingcheck/check"
	"github.com/thetooth/pingcheck/config"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:          "pingcheck <target>",
	Short:        "ICMP ping utility with JSON output",
	Long:         "Probes a single host with ICMP echo requests, applies loss and latency thresholds and prints one machine readable JSON record as the final line of output.",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is ./pingcheck.yaml)")
	rootCmd.Flags().IntP("count", "c", config.DefaultCount, "stop after sending COUNT packets, 0 means endless")
	rootCmd.Flags().Int64P("interval", "i", config.DefaultIntervalMS, "wait INTERVAL milliseconds between sending each packet")
	rootCmd.Flags().Int64P("timeout", "W", config.DefaultTimeoutMS, "time to wait for a response, in milliseconds")
	rootCmd.Flags().IntP("ttl", "t", config.DefaultTTL, "set time to live")
	rootCmd.Flags().Float64P("max-loss", "L", config.DefaultMaxLoss, "maximum acceptable packet loss percentage")
	rootCmd.Flags().Int64P("max-latency", "M", config.DefaultMaxLatency, "maximum acceptable round-trip time in milliseconds")
	rootCmd.Flags().StringP("name", "n", "", "server name for reporting (defaults to target)")
	rootCmd.Flags().String("source", "", "source address to bind the echo socket to")
	rootCmd.Flags().Bool("privileged", false, "use a raw ICMP socket, requires super-user rights")
	rootCmd.Flags().BoolP("quiet", "q", false, "quiet output, only show summary at end")

	v.BindPFlag("count", rootCmd.Flags().Lookup("count"))
	v.BindPFlag("interval", rootCmd.Flags().Lookup("interval"))
	v.BindPFlag("timeout", rootCmd.Flags().Lookup("timeout"))
	v.BindPFlag("ttl", rootCmd.Flags().Lookup("ttl"))
	v.BindPFlag("max_loss", rootCmd.Flags().Lookup("max-loss"))
	v.BindPFlag("max_latency", rootCmd.Flags().Lookup("max-latency"))
	v.BindPFlag("name", rootCmd.Flags().Lookup("name"))
	v.BindPFlag("source", rootCmd.Flags().Lookup("source"))
	v.BindPFlag("privileged", rootCmd.Flags().Lookup("privileged"))
	v.BindPFlag("quiet", rootCmd.Flags().Lookup("quiet"))
}

func initConfig() {
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pingcheck")
	}
	v.SetEnvPrefix("PINGCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// A config file is optional, flags and defaults cover everything
	if err := v.ReadInConfig(); err == nil {
		logrus.Debug("Using config file: ", v.ConfigFileUsed())
	}
}

func run(cmd *cobra.Command, args []string) error {
	v.Set("target", args[0])
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	prober, err := check.NewICMPProber(cfg.TTL, cfg.Source, cfg.Privileged)
	if err != nil {
		return err
	}
	defer prober.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := &check.Checker{
		Target:   cfg.Target,
		Count:    cfg.Count,
		Interval: cfg.Interval,
		Timeout:  cfg.Timeout,
		Prober:   prober,
	}

	var addr *net.IPAddr
	checker.OnStart = func(dst *net.IPAddr) {
		addr = dst
		if !cfg.Quiet {
			logrus.Infof("PING %s (%s) %d bytes of data", cfg.Target, dst, check.EchoSize)
		}
	}
	if !cfg.Quiet {
		checker.OnRecv = func(seq uint16, rtt time.Duration) {
			fmt.Printf("%d bytes from %s: icmp_seq=%d ttl=%d time=%.2f ms\n",
				check.EchoSize+8, addr, seq, cfg.TTL, float64(rtt)/float64(time.Millisecond))
		}
		checker.OnFail = func(seq uint16, err error) {
			if errors.Is(err, check.ErrTimeout) {
				logrus.Errorf("Request timeout for icmp_seq %d", seq)
			} else {
				logrus.Errorf("Ping failed for sequence %d: %v", seq, err)
			}
		}
		checker.OnFinish = func(s check.Snapshot) {
			fmt.Printf("\n--- %s ping statistics ---\n", cfg.Target)
			fmt.Printf("%d packets transmitted, %d received, %.1f%% packet loss, time %dms\n",
				s.Sent, s.Received, s.PacketLoss(), s.TotalRtt.Milliseconds())
			if s.Received > 0 {
				fmt.Printf("rtt avg = %.3f ms\n", float64(s.AvgRtt().Milliseconds()))
			}
		}
	}

	if err := checker.Run(ctx); err != nil {
		var resErr *check.ResolutionError
		if errors.As(err, &resErr) {
			// Threshold failure keeps a zero exit status, only a failed
			// resolution reports through the process exit code
			emit(check.Unresolvable(cfg.ServerName(), resErr))
		}
		return err
	}

	stats := checker.Statistics()
	result := check.Verdict(stats, cfg.ServerName(), cfg.MaxLoss, cfg.MaxLatency)
	if !result.Success {
		logrus.Errorf("Member: %s failed ping check - Loss: %.2f%% (Max: %v%%) Latency: %dms (Max: %dms)",
			cfg.ServerName(), stats.PacketLoss(), cfg.MaxLoss, result.Data.Latency, cfg.MaxLatency)
	}

	return emit(result)
}

// emit prints the structured record, always the final line of output
func emit(result check.Result) error {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))

	return nil
}
