package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/cloudchess/lambot/internal/handlers"
)

func main() {
	lambda.Start(handlers.StreamHandler)
}
