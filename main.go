package main

import (
	"flag"
	"fmt"
	"gowheel/config"
	"gowheel/lib/timewheel"
	"gowheel/logger"
	"gowheel/tcp"
	"time"

	"go.uber.org/zap"
)

const banner = `
                   _               _
   __ _  _____ __ _| |__   ___  ___| |
  / _' |/ _ \ V  V / '_ \ / _ \/ _ \ |
 | (_| | (_) \_/\_/| | | |  __/  __/ |
  \__, |\___/      |_| |_|\___|\___|_|
  |___/
`

func main() {
	configFile := flag.String("config", "config.yaml", "path of the configuration file")
	flag.Parse()

	fmt.Print(banner)
	if err := config.Init(*configFile); err != nil {
		fmt.Printf("init config failed, err:%v\n", err)
		return
	}
	conf := config.Get()
	if err := logger.Init(conf.LogConfig); err != nil {
		fmt.Printf("init logger failed, err:%v\n", err)
		return
	}
	defer zap.L().Sync()

	timer, err := timewheel.NewTimer(conf.Wheel.Interval, conf.Wheel.Slots)
	if err != nil {
		zap.L().Error("NewTimer() failed", zap.Error(err))
		return
	}
	timer.Start()
	defer timer.Stop()

	if err := tcp.ListenAndServe(
		&tcp.Config{
			Address: conf.Address(),
			MaxConn: uint32(conf.MaxClients),
		},
		// 空闲超时跟随配置热更新
		tcp.NewEchoHandler(timer, func() time.Duration { return config.Get().IdleTimeout }),
	); err != nil {
		zap.L().Error("ListenAndServe() failed", zap.Error(err))
	}
}
