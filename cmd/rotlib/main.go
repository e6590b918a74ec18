/*
 * main.go, part of dunbrack.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//rotlib builds, inspects and queries backbone-dependent rotamer libraries.
package main

import (
	"fmt"
	"os"
	"strings"

	dunbrack "github.com/MoritzErtelt/rosetta-sub000"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//Settings are the values read from flags, the environment (ROTLIB_ prefix)
//and the optional configuration file.
type Settings struct {
	LogLevel string `mapstructure:"log_level"`
	Verbose  bool   `mapstructure:"verbose"`
	Classes  string `mapstructure:"classes"` //YAML file with extra residue classes
	Store    struct {
		Kind string `mapstructure:"kind"`
		Path string `mapstructure:"path"`
	} `mapstructure:"store"`
	Library struct {
		ReducedResolution bool `mapstructure:"reduced_resolution"`
		Bicubic           bool `mapstructure:"bicubic"`
		Entropy           bool `mapstructure:"entropy"`
		Voronoi           bool `mapstructure:"voronoi"`
		NormalizeSD       bool `mapstructure:"normalize_sd"`
	} `mapstructure:"library"`
	Build struct {
		Pseudo    float64 `mapstructure:"pseudo"`
		DefaultSD float64 `mapstructure:"default_sd"`
	} `mapstructure:"build"`
}

var (
	configPath string
	className  string
	settings   Settings
	logger     = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "rotlib",
	Short: "Backbone-dependent rotamer libraries",
	Long: `rotlib builds rotamer libraries from observed dihedrals, converts between
the plain and compressed binary formats, evaluates rotamer energies and plots
the backbone dependence of rotamer probabilities.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(configPath)
		if err != nil {
			return err
		}
		settings = *s
		setupLogger(logger, settings)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&className, "class", "", "Residue class of the library")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().String("classes", "", "YAML file with residue classes")
	rootCmd.PersistentFlags().String("store", "", "Library store: memory or sqlite")
	rootCmd.PersistentFlags().String("store-path", "", "SQLite database for the library store")
	rootCmd.PersistentFlags().Bool("reduced", false, "Use 30 degree bins")
	rootCmd.PersistentFlags().Bool("entropy", false, "Add the entropy correction to rotamer energies")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("classes", rootCmd.PersistentFlags().Lookup("classes"))
	viper.BindPFlag("store.kind", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store-path"))
	viper.BindPFlag("library.reduced_resolution", rootCmd.PersistentFlags().Lookup("reduced"))
	viper.BindPFlag("library.entropy", rootCmd.PersistentFlags().Lookup("entropy"))

	viper.SetEnvPrefix("ROTLIB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(buildCmd, infoCmd, convertCmd, energyCmd, rotamersCmd, plotCmd, scoreCmd, diffCmd, storeCmd, classesCmd)
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("store.kind", "sqlite")
	viper.SetDefault("store.path", "rotlib.db")
	viper.SetDefault("library.bicubic", true)
	viper.SetDefault("library.voronoi", false)
	viper.SetDefault("build.pseudo", 0.5)
	viper.SetDefault("build.default_sd", 10.0)
}

//loadSettings reads the configuration file, if given, on top of the defaults.
func loadSettings(path string) (*Settings, error) {
	setDefaults()
	if path != "" {
		viper.SetConfigFile(path)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &s, nil
}

func setupLogger(logger *logrus.Logger, s Settings) {
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	if s.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
}

//residueClass finds name in the classes file of the settings, if any, and
//then among the built-in classes.
func residueClass(name string, s Settings) (dunbrack.ResidueClass, error) {
	if name == "" {
		return dunbrack.ResidueClass{}, fmt.Errorf("no residue class given, use --class")
	}
	if s.Classes != "" {
		f, err := os.Open(s.Classes)
		if err != nil {
			return dunbrack.ResidueClass{}, err
		}
		defer f.Close()
		classes, err := dunbrack.ReadClasses(f)
		if err != nil {
			return dunbrack.ResidueClass{}, err
		}
		if c, ok := classes[name]; ok {
			return c, nil
		}
	}
	if c, ok := dunbrack.BuiltinClass(name); ok {
		return c, nil
	}
	return dunbrack.ResidueClass{}, fmt.Errorf("unknown residue class %q", name)
}

//libraryConfig is the library configuration for the named class.
func libraryConfig(name string, s Settings) (dunbrack.Config, error) {
	class, err := residueClass(name, s)
	if err != nil {
		return dunbrack.Config{}, err
	}
	cfg := dunbrack.DefaultConfig(class)
	cfg.ReducedResolution = s.Library.ReducedResolution
	cfg.UseBicubic = s.Library.Bicubic
	cfg.EntropyCorrection = s.Library.Entropy
	cfg.NormalizeSD = s.Library.NormalizeSD
	if s.Library.Voronoi {
		cfg.UseVoronoiCanonical = true
		cfg.UseVoronoiNonCanonical = true
	}
	cfg.Logger = logger
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
