package main

import (
	"fmt"
	"os"
	"subuk/ec2resize/bootstrap"
	"subuk/ec2resize/util"

	"github.com/akamensky/argparse"
)

func main() {
	parser := argparse.NewParser("ec2resize", "Grow the root EBS volume of an EC2 instance")
	name := parser.String("n", "name", &argparse.Options{
		Required: true,
		Help:     "Value of the instance Name tag",
	})
	size := parser.Int("s", "size", &argparse.Options{
		Required: true,
		Help:     "Gigabytes to add to the root volume",
	})
	configFilename := parser.String("c", "config", &argparse.Options{
		Default: util.GetenvDefault("EC2RESIZE_CONFIG", ""),
		Help:    "Configuration file path",
	})
	report := parser.Flag("r", "report", &argparse.Options{
		Help: "Print a YAML report of the run to stdout",
	})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(1)
	}
	bootstrap.Resize(*configFilename, *name, *size, *report)
}
