package plain

import (
	"path/filepath"
	"testing"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/test/helpers"
)

// TestEndToEndDataExchange mimics
//   - "anysock listen tcp://127.0.0.1:12345"
//   - "anysock connect tcp://127.0.0.1:12345"
//
// with mocked network and stdio.
func TestEndToEndDataExchange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	setup := helpers.SetupMockDependenciesAndConfigs()
	defer setup.Close()

	helpers.Exchange(t, setup, func() error {
		_, err := setup.TCPNetwork.WaitForListener("127.0.0.1:12345", 2000)
		return err
	})
}

// TestEndToEndDataExchange_TLS adds "--ssl --key secret --log <file>" on
// both sides.
func TestEndToEndDataExchange_TLS(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	setup := helpers.SetupMockDependenciesAndConfigs()
	defer setup.Close()

	setup.Configure(func(cfg *config.Shared) {
		cfg.SSL = true
		cfg.Key = "secret"
	})
	setup.ListenCfg.LogFile = filepath.Join(dir, "listen.log")
	setup.ConnectCfg.LogFile = filepath.Join(dir, "connect.log")

	helpers.Exchange(t, setup, func() error {
		_, err := setup.TCPNetwork.WaitForListener("127.0.0.1:12345", 2000)
		return err
	})
}
