package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mailgate/internal/conf"
	"mailgate/internal/gateway"
	"mailgate/internal/message"
)

func main() {
	// Command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	log.Println("Starting mailgate localhost mail gateway...")

	var cfg *conf.Config
	var err error
	if *configPath != "" {
		cfg, err = conf.LoadConfigFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config from %s: %v", *configPath, err)
		}
	} else {
		cfg, err = conf.LoadConfig()
		if err != nil {
			log.Printf("No config file found, using defaults: %v", err)
			cfg = conf.DefaultConfig()
		}
	}

	coordinator, err := gateway.NewCoordinator(cfg)
	if err != nil {
		log.Fatal("Failed to initialize gateway: ", err)
	}

	// Standalone mode: echo a canned acknowledgement into the mailbox for
	// every incoming message. Embedding applications install their own
	// handler instead.
	coordinator.SetTaskHandler(func(msg *message.MailMessage) {
		log.Printf("Incoming message %s from %s: %s", msg.MessageID, msg.From, msg.Subject)

		reply := &message.Response{
			From:    "postmaster@" + cfg.Hostname,
			Subject: "Re: " + msg.Subject,
			Body:    "Your message was received by the gateway.",
		}
		coordinator.StoreReply(reply.ToMessage(msg))
	})

	if err := coordinator.Start(); err != nil {
		log.Fatal("Failed to start gateway: ", err)
	}

	log.Println("Configure your email client with:")
	log.Printf("  SMTP: localhost:%d", cfg.SMTPPort)
	log.Printf("  IMAP: localhost:%d", cfg.IMAPPort)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	coordinator.Stop()
}
