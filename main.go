package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/deemkeen/banbridge/bus"
	"github.com/deemkeen/banbridge/db"
	"github.com/deemkeen/banbridge/util"
	"github.com/deemkeen/banbridge/web"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {
	versionFlag := flag.Bool("v", false, "print version and exit")
	genTokenFlag := flag.Bool("gentoken", false, "generate a random api token and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(util.GetNameAndVersion())
		os.Exit(0)
	}

	if *genTokenFlag {
		fmt.Println(uuid.New().String())
		os.Exit(0)
	}

	conf, err := util.ReadConf()
	if err != nil {
		log.Fatalf("Could not read config: %v", err)
	}

	util.SetupLogging(conf)
	log.Printf("Starting %s", util.GetNameAndVersion())

	live := bus.New()

	database, err := db.Connect(conf.Conf.SqlitePath, live)
	if err != nil {
		log.Fatalf("Could not open database: %v", err)
	}
	defer database.Close()
	database.SetBanChangesMaxRows(conf.Conf.BanChangesMaxRows)

	gin.SetMode(gin.ReleaseMode)
	router := web.NewRouter(conf, database, live)

	srv := &http.Server{
		Addr:              web.ListenAddr(conf),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Http server failed: %v", err)
		}
	}()

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Printf("Could not notify systemd: %v", err)
	} else if sent {
		log.Println("Notified systemd of readiness")
	}

	stop := make(chan struct{})
	go consoleLoop(stop)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("Received shutdown signal")
	case <-stop:
		log.Println("Shutdown requested from console")
	}

	daemon.SdNotify(false, daemon.SdNotifyStopping)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	log.Println("Bye!")
}

// consoleLoop reads admin commands from stdin. Only useful in a terminal;
// under systemd stdin is closed and the loop just ends.
func consoleLoop(stop chan<- struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "stop", "exit", "quit":
			close(stop)
			return
		case "":
		default:
			fmt.Println("Commands: stop | exit | quit")
		}
	}
}
