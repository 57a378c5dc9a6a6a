package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"pdfcrop/app/server"
	"pdfcrop/config"
)

func init() {
	config.LoadEnv()
}

func main() {
	s := server.NewServer(config.FromEnv())

	go s.Run()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down server...")
	s.Stop()
}
