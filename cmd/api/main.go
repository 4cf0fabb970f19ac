package main

import (
	"hedgebacktest/cmd"
	"os"

	"go.uber.org/zap"
)

func main() {
	log := zap.S()
	log.Infow("starting api", "commitHash", os.Getenv("commit_hash"))

	apiHandler, secrets, err := cmd.InitializeDependencies()
	if err != nil {
		log.Fatal(err)
	}
	defer cmd.CloseDependencies(apiHandler)

	err = apiHandler.StartApi(secrets.Port)
	if err != nil {
		log.Fatal(err)
	}
}
