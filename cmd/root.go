// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd is tilckd's cobra command tree, adapted from gcsfuse's
// cmd/root.go: a persistent flag set bound through cfg.BindFlags, a viper
// config file overlay, and a RunE that validates the resulting cfg.Config
// before doing anything with it.
package cmd

import (
	"fmt"
	"os"

	"github.com/iurie5100/tilck/cfg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	unmarshalErr  error
	Config        cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "tilckd",
	Short: "Run the tilck kernel core's scheduler, VFS and ramfs in a single process",
	Long: `tilckd boots an in-process simulation of the tilck kernel core: a
cooperative scheduler, a mount-table-backed VFS, and a ramfs root
filesystem, then runs a scripted workload of processes against it through
the syscall layer.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		if err := cfg.Rationalize(&Config); err != nil {
			return fmt.Errorf("rationalizing config: %w", err)
		}
		if err := cfg.ValidateConfig(&Config); err != nil {
			return fmt.Errorf("validating config: %w", err)
		}
		return Boot(&Config)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to the config file")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile == "" {
		unmarshalErr = viper.Unmarshal(&Config, viper.DecodeHook(cfg.DecodeHook()))
		return
	}
	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("error while reading config file: %w", err)
		return
	}
	unmarshalErr = viper.Unmarshal(&Config, viper.DecodeHook(cfg.DecodeHook()))
}
