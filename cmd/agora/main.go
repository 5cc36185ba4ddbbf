// Copyright 2024 The go-agora Authors
// This file is part of go-agora.
//
// go-agora is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-agora is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-agora. If not, see <http://www.gnu.org/licenses/>.

// agora is the command line entry point for the task marketplace daemon.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/urfave/cli.v1"

	"github.com/agorachain/go-agora/agoradb/leveldb"
	"github.com/agorachain/go-agora/core/agora"
	"github.com/agorachain/go-agora/core/ledger"
	"github.com/agorachain/go-agora/core/rawdb"
)

const clientIdentifier = "agora"

var (
	app = cli.NewApp()

	appFlags = []cli.Flag{
		configFileFlag,
		dataDirFlag,
		cacheFlag,
		feeFlag,
		verbosityFlag,
	}
)

func init() {
	app.Name = clientIdentifier
	app.Usage = "the task marketplace daemon"
	app.Version = "1.0.0"
	app.Action = runAgora
	app.Flags = appFlags
	app.Commands = []cli.Command{
		dumpConfigCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	app.Before = func(ctx *cli.Context) error {
		handler := log.StreamHandler(os.Stderr, log.TerminalFormat(false))
		verbosity := log.Lvl(ctx.GlobalInt(verbosityFlag.Name))
		log.Root().SetHandler(log.LvlFilterHandler(verbosity, handler))
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runAgora opens the marketplace database, restores the persisted state and
// serves until interrupted, committing the state back on shutdown.
func runAgora(ctx *cli.Context) error {
	cfg := makeConfig(ctx)

	db, err := leveldb.New(cfg.DataDir+"/agoradata", cfg.Cache, 512, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}
	defer db.Close()

	manager := agora.NewManager(&cfg.Agora, ledger.New())
	if err := rawdb.LoadMarket(db, manager.Market()); err != nil {
		return fmt.Errorf("failed to load marketplace state: %v", err)
	}
	manager.RebuildIndexes()
	log.Info("Marketplace started", "datadir", cfg.DataDir,
		"feeBps", cfg.Agora.FeeBasisPoints, "openEscrows", manager.OpenEscrowCount())

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	<-sigc
	log.Info("Got interrupt, shutting down...")

	if err := rawdb.CommitMarket(db, manager.Market()); err != nil {
		return fmt.Errorf("failed to commit marketplace state: %v", err)
	}
	log.Info("Marketplace state committed")
	return nil
}
