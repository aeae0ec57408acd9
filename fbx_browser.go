package main

import (
	"flag"
	"log"

	"github.com/mogaika/fbxloader/config"
	"github.com/mogaika/fbxloader/web"
)

func main() {
	var addr, configPath string
	flag.StringVar(&addr, "i", "", "Address of server, overrides server.addr from config")
	flag.StringVar(&configPath, "config", "", "Path to yaml or toml config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	srv := web.NewServer(cfg)
	if path := flag.Arg(0); path != "" {
		if err := srv.LoadFile(path); err != nil {
			log.Fatal(err)
		}
	} else {
		log.Printf("[web] No file given, waiting for POST /upload")
	}

	if err := srv.StartServer(); err != nil {
		log.Fatal(err)
	}
}
