package cli

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/project-copacetic/anchore-scan/pkg/scan"
	"github.com/project-copacetic/anchore-scan/pkg/types"
)

const envPrefix = "ANCHORE"

const (
	keyURL            = "url"
	keyUser           = "user"
	keyPass           = "pass"
	keyImage          = "image"
	keyBundleID       = "policy-bundle-id"
	keyTimeout        = "timeout"
	keyPollInterval   = "poll-interval"
	keyRequestTimeout = "request-timeout"
	keyInsecure       = "insecure-skip-tls-verify"
	keyOutputDir      = "output-dir"
	keyLogLevel       = "log-level"
	keyConfig         = "config"
)

// outputKey is the flag naming the artifact file of kind, e.g. output-content-npm.
func outputKey(kind types.ReportKind) string {
	return "output-" + strings.ReplaceAll(string(kind), "_", "-")
}

// For testing.
var runScan = scan.Run

// NewScanCmd returns the command that runs one full analysis of an image.
func NewScanCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Analyze an image with Anchore and save its reports",
		Example: "anchore-scan scan --url http://anchore:8228/v1 --user admin --pass foobar " +
			"--image docker.io/library/alpine:3.19",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindConfig(cmd, v)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, err := log.ParseLevel(v.GetString(keyLogLevel))
			if err != nil {
				return err
			}
			log.SetLevel(level)

			opts := optionsFromViper(v)
			_, err = runScan(cmd.Context(), opts)
			return err
		},
	}

	flags := cmd.Flags()
	flags.String(keyURL, "", "Anchore API base URL, e.g. http://anchore:8228/v1 (env ANCHORE_URL)")
	flags.String(keyUser, "", "Anchore username (env ANCHORE_USER)")
	flags.String(keyPass, "", "Anchore password (env ANCHORE_PASS)")
	flags.StringP(keyImage, "i", "", "Image reference to analyze")
	flags.String(keyBundleID, "", "Policy bundle to evaluate against; the active bundle is used when empty")
	flags.Int(keyTimeout, 10, "Minutes to wait for the analysis to complete")
	flags.Int(keyPollInterval, 5, "Seconds between analysis status checks")
	flags.Duration(keyRequestTimeout, 60*time.Second, "Timeout of a single API request")
	flags.Bool(keyInsecure, false, "Skip TLS certificate verification of the Anchore API")
	flags.StringP(keyOutputDir, "o", ".", "Directory the reports are written to")
	flags.String(keyLogLevel, log.InfoLevel.String(), "Log level (debug, info, warn, error)")
	flags.String(keyConfig, "", "Optional YAML config file")
	for _, kind := range types.ReportKinds {
		flags.String(outputKey(kind), "", "File name of the "+strings.ReplaceAll(string(kind), "_", " ")+" report")
	}

	return cmd
}

func bindConfig(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", path)
		}
	}
	return nil
}

func optionsFromViper(v *viper.Viper) *types.Options {
	opts := &types.Options{
		URL:                   v.GetString(keyURL),
		Username:              v.GetString(keyUser),
		Password:              v.GetString(keyPass),
		Image:                 v.GetString(keyImage),
		PolicyBundleID:        v.GetString(keyBundleID),
		Timeout:               time.Duration(v.GetInt(keyTimeout)) * time.Minute,
		PollInterval:          time.Duration(v.GetInt(keyPollInterval)) * time.Second,
		RequestTimeout:        v.GetDuration(keyRequestTimeout),
		InsecureSkipTLSVerify: v.GetBool(keyInsecure),
		OutputDir:             v.GetString(keyOutputDir),
		Outputs:               map[types.ReportKind]string{},
	}
	for _, kind := range types.ReportKinds {
		if name := v.GetString(outputKey(kind)); name != "" {
			opts.Outputs[kind] = name
		}
	}
	return opts
}
