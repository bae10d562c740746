/*
Copyright 2024 Parlor Works Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parlorworks/parlor"
	"github.com/parlorworks/parlor/config"
	"github.com/parlorworks/parlor/database"
	"github.com/parlorworks/parlor/internal/notification"
)

// Parlor represents the CLI application, encapsulating the root Cobra command.
type Parlor struct {
	cmd *cobra.Command
}

// parlorInstance holds the coordinator instance and its configuration, shared
// by every subcommand.
type parlorInstance struct {
	parlor *parlor.Parlor
	cnf    *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads configuration and initializes the coordinator before any
// subcommand runs.
func preRun(app *parlorInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("parlor.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newParlor, err := setupParlor(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.parlor = newParlor
		app.cnf = cnf

		return nil
	}
}

func setupParlor(cfg *config.Configuration) (*parlor.Parlor, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return &parlor.Parlor{}, fmt.Errorf("error getting datasource: %v", err)
	}

	newParlor, err := parlor.NewParlor(db)
	if err != nil {
		return &parlor.Parlor{}, fmt.Errorf("error creating parlor: %v", err)
	}
	return newParlor, nil
}

// NewCLI creates the command-line interface for the coordinator.
func NewCLI() *Parlor {
	var configFile string
	p := &parlorInstance{}

	var rootCmd = &cobra.Command{
		Use:   "parlor",
		Short: "Salon service-claim and settlement coordinator",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./parlor.json", "Configuration file for the coordinator")

	rootCmd.PersistentPreRunE = preRun(p)

	rootCmd.AddCommand(serverCommands(p))
	rootCmd.AddCommand(workerCommands(p))
	rootCmd.AddCommand(migrateCommands(p))
	rootCmd.AddCommand(backupCommands(p))
	rootCmd.AddCommand(configCommands())

	return &Parlor{cmd: rootCmd}
}

func (w Parlor) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
