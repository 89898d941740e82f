package main

import (
	"net/http"
	"os"
	"os/signal"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"
	"github.com/tcriess/lightspeed-board/chain"
	"github.com/tcriess/lightspeed-board/config"
	"github.com/tcriess/lightspeed-board/globals"
	"github.com/tcriess/lightspeed-board/httpapi"
	"github.com/tcriess/lightspeed-board/persistence"
	"github.com/tcriess/lightspeed-board/roomstore"
	"github.com/tcriess/lightspeed-board/ws"
)

var (
	configPath = pflag.StringP("config", "c", "", "path to config file or directory")
	addr       = pflag.String("addr", "localhost:8000", "service address (including port)")
	sslCert    = pflag.String("ssl-cert", "", "SSL cert (optional)")
	sslKey     = pflag.String("ssl-key", "", "SSL key (optional)")
)

func main() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		globals.AppLogger.Error("interrupted!")
		os.Exit(1)
	}()

	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)
	pflag.Parse()

	globalConfig, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		panic(err)
	}

	if globalConfig.LogLevel != "" {
		globals.AppLogger.SetLevel(hclog.LevelFromString(globalConfig.LogLevel))
	}

	persister, err := persistence.NewPersister(globalConfig)
	if err != nil {
		panic(err)
	}
	if persister != nil {
		defer persister.Close()
	}

	var checker chain.BalanceChecker
	if globalConfig.ChainConfig.RpcUrl != "" {
		rpcChecker, err := chain.NewRpcBalanceChecker(globalConfig.ChainConfig.RpcUrl)
		if err != nil {
			panic(err)
		}
		defer rpcChecker.Close()
		checker = rpcChecker
	}

	var notifier roomstore.Notifier
	if globalConfig.AnnounceConfig.WebhookUrl != "" {
		notifier = roomstore.NewWebhookNotifier(globalConfig.AnnounceConfig.WebhookUrl, globalConfig.AnnounceConfig.SiteUrl)
	}

	service, err := roomstore.NewService(globalConfig, persister, checker, notifier)
	if err != nil {
		panic(err)
	}

	registry := ws.NewRegistry(globalConfig)

	router := mux.NewRouter()
	router.HandleFunc("/board/{room:[a-z][a-z0-9_-]*}", registry.Handler()).Methods(http.MethodGet)
	httpapi.NewHandler(service, globals.AppLogger).Register(router)
	http.Handle("/", router)

	globals.AppLogger.Info("listening", "addr", *addr)
	if *sslCert != "" && *sslKey != "" {
		err = http.ListenAndServeTLS(*addr, *sslCert, *sslKey, nil)
	} else {
		err = http.ListenAndServe(*addr, nil)
	}
	globals.AppLogger.Error("stopped listening", "error", err)
}
