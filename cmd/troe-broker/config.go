package main

import (
	"context"
	"flag"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
)

type FlagType int
type FlagMap map[FlagType]string

const (
	listenAddress FlagType = iota
	servicePort
	controlPort

	configPath
	opaPath

	logFormat
)

func defaultFlags() FlagMap {
	return FlagMap{
		listenAddress: "",
		servicePort:   "8080",
		controlPort:   "8000",
		configPath:    "/opt/diwise/config/troe.yaml",
		opaPath:       "/opt/diwise/config/authz.rego",
		logFormat:     "json",
	}
}

// parseExternalConfig lets environment variables override the defaults and
// command line flags override the environment
func parseExternalConfig(ctx context.Context, flags FlagMap) FlagMap {
	apply := func(f FlagType, envName string) {
		flags[f] = env.GetVariableOrDefault(ctx, envName, flags[f])
	}

	apply(listenAddress, "LISTEN_ADDRESS")
	apply(servicePort, "SERVICE_PORT")
	apply(controlPort, "CONTROL_PORT")
	apply(configPath, "TROE_CONFIG_PATH")
	apply(opaPath, "TROE_POLICIES_PATH")
	apply(logFormat, "LOG_FORMAT")

	flagValue := func(f FlagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	flag.Func("config", "path to the tenant and temporal configuration file", flagValue(configPath))
	flag.Func("policies", "path to the authorization policies", flagValue(opaPath))
	flag.Func("port", "port to serve the ngsi-ld api on", flagValue(servicePort))
	flag.Parse()

	return flags
}
