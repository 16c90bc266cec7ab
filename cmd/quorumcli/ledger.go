package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/quorum/app"
	"github.com/iov-one/quorum/store"
	"github.com/iov-one/quorum/x/memo"
	"github.com/iov-one/quorum/x/multisig"
	"github.com/iov-one/quorum/x/system"
	"github.com/iov-one/quorum/x/utils"
	"github.com/tendermint/tendermint/libs/log"
)

func newLogger(level string) (log.Logger, error) {
	allow, err := log.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewFilter(log.NewTMLogger(log.NewSyncWriter(os.Stderr)), allow), nil
}

// newLedger opens the ledger database kept in the home directory. Returned
// function must be called to release the database.
func newLedger(c *config) (*app.Ledger, func(), error) {
	logger, err := newLogger(c.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %s", err)
	}
	if err := os.MkdirAll(c.Home, 0700); err != nil {
		return nil, nil, fmt.Errorf("cannot create home directory: %s", err)
	}
	db, err := store.OpenLevelDB(filepath.Join(c.Home, "data"))
	if err != nil {
		return nil, nil, err
	}

	r := app.NewRouter()
	system.RegisterRoutes(r)
	memo.RegisterRoutes(r)
	multisig.RegisterRoutes(r)
	h := app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
	).WithHandler(r)

	l := app.NewLedger(store.BTreeCacheable{KVStore: db}, h).
		WithLogger(logger).
		WithDebug(c.LogLevel == "debug")
	return l, func() { _ = db.Close() }, nil
}

// openLedger is newLedger that fails if the ledger was not initialized.
func openLedger(c *config) (*app.Ledger, func(), error) {
	l, release, err := newLedger(c)
	if err != nil {
		return nil, nil, err
	}
	chainID, err := l.ChainID()
	if err != nil {
		release()
		return nil, nil, err
	}
	if chainID == "" {
		release()
		return nil, nil, fmt.Errorf("no ledger in %q, run init first", c.Home)
	}
	return l, release, nil
}

// openClient opens the ledger and loads the signer keypair.
func openClient(c *config) (*multisig.Client, *app.Ledger, func(), error) {
	key, err := loadKeypair(c.keypairPath())
	if err != nil {
		return nil, nil, nil, err
	}
	l, release, err := openLedger(c)
	if err != nil {
		return nil, nil, nil, err
	}
	return multisig.NewClient(l, key), l, release, nil
}
