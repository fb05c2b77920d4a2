package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"factorportfolio/cmd"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	fmt.Println(os.Getenv("commit_hash"))
	apiHandler, err := cmd.InitializeDependencies(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	defer cmd.CloseDependencies(apiHandler)

	err = apiHandler.StartApi(apiHandler.Config.Api.Port)
	if err != nil {
		log.Fatal(err)
	}
}
