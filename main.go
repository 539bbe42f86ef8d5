package main

import (
	"os"

	"github.com/joho/godotenv"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// pdfcpu would otherwise create a config directory under $HOME
	pdfcpu.DisableConfigDir()

	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}
