package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptodash/internal/cli"
	"cryptodash/internal/config"
	"cryptodash/internal/svc"
	"cryptodash/pkg/display"
	"cryptodash/pkg/selection"
)

const shutdownTimeout = 10 * time.Second

var (
	configFile = flag.String("f", "etc/cryptodash.yaml", "the config file")
	focus      = flag.String("focus", "", "symbol to focus on start (default from config)")
)

func main() {
	flag.Parse()
	logx.Info("[monitor] starting headless dashboard...")

	appCfg, err := config.Load(*configFile)
	if err != nil {
		logx.Errorf("[monitor] failed to load app config: %v, using defaults", err)
		appCfg = &config.Config{Env: "test"}
		logx.Must(appCfg.Validate())
	}
	if appCfg.Market.Value == nil {
		appCfg.Market.Value = config.MustLoadMarket()
		appCfg.Market.File = "etc/market.yaml (default)"
	}
	cli.LogConfigSummary(appCfg)

	svcCtx, err := svc.New(*appCfg)
	logx.Must(err)
	vm := svcCtx.Selection
	if *focus != "" {
		vm.Select(*focus)
	}

	cancel := vm.Subscribe(func(e selection.Event) {
		report(vm, e)
	})
	defer cancel()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logx.Must(svcCtx.Start(ctx))
	logx.Info("[monitor] running. Press Ctrl+C to stop.")

	<-ctx.Done()
	logx.Info("[monitor] shutdown signal received, stopping...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := svcCtx.Stop(shutdownCtx); err != nil {
		logx.Errorf("[monitor] shutdown timeout exceeded: %v", err)
		return
	}
	logx.Info("[monitor] stopped cleanly")
}

func report(vm *selection.ViewModel, e selection.Event) {
	v := vm.View()
	switch e.Type {
	case selection.EventSnapshot, selection.EventFocus:
		if !v.Found {
			logx.Infof("[monitor] seq=%d focus=%s not in snapshot", v.Snapshot.Seq, v.Focus)
			return
		}
		card := display.Card(v.Focused)
		direction := "down"
		if card.Change.Up {
			direction = "up"
		}
		logx.Infof("[monitor] seq=%d %s %s %s (%s %s), %d others",
			v.Snapshot.Seq, card.Symbol, card.Name, card.Price, direction, card.Change.Text, len(v.Others))
	case selection.EventExchanges:
		logx.Infof("[monitor] %s listed on %d exchanges", v.Focus, len(v.Exchanges))
		for _, t := range v.Exchanges {
			logx.Infof("[monitor]   %-20s vol %-18s trust %s", t.Name, display.MoneyFloat(t.VolumeUSD), display.Trust(t))
		}
	}
}
