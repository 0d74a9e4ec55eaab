package setup

import (
	"fmt"

	"github.com/sidkik/hoist/cmd/util"
	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/proto"
)

const (
	nodeKind = "node"

	defaultNodeVersion    = "18"
	defaultInstallCommand = "npm install"
	defaultBuildCommand   = "npm run build"
	defaultStartCommand   = "npm start"
	defaultPort           = "3000"
	defaultSizeIndex      = 0

	currency      = "USD"
	hoursPerMonth = 730
)

// defaultService is the service written by `hoist init --yes`.
func defaultService(catalog proto.DeployDataPayload) config.Service {
	return config.Service{
		Name:    nodeKind,
		Version: defaultNodeVersion,
		Size:    catalog.Sizes[defaultSizeIndex].Name,
		Commands: config.Commands{
			Install: defaultInstallCommand,
			Build:   defaultBuildCommand,
			Start:   defaultStartCommand,
		},
		Environment: map[string]string{"PORT": defaultPort},
	}
}

func promptService(prompter util.Prompter, catalog proto.DeployDataPayload) (config.Service, error) {
	kinds := catalog.Services
	if len(kinds) == 0 {
		kinds = []proto.ServiceKind{{Name: "Node.js", Value: nodeKind}}
	}

	var kindOptions []string
	for _, kind := range kinds {
		kindOptions = append(kindOptions, fmt.Sprintf("%s (%s)", kind.Value, kind.Name))
	}
	kindIndex, err := prompter.Select("Select service", kindOptions, 0)
	if err != nil {
		return config.Service{}, err
	}

	var sizeOptions []string
	for _, size := range catalog.Sizes {
		sizeOptions = append(sizeOptions, costString(size, catalog))
	}
	sizeIndex, err := prompter.Select("Select size of service", sizeOptions, defaultSizeIndex)
	if err != nil {
		return config.Service{}, err
	}

	svc := config.Service{
		Name: kinds[kindIndex].Value,
		Size: catalog.Sizes[sizeIndex].Name,
	}
	if svc.Name != nodeKind {
		return svc, nil
	}

	if svc.Version, err = prompter.Input("Specify NodeJS version", defaultNodeVersion, nil); err != nil {
		return config.Service{}, err
	}

	if svc.Commands.Install, err = prompter.Input(`Specify "install" command`,
		defaultInstallCommand, nil); err != nil {
		return config.Service{}, err
	}

	useBuild, err := prompter.Confirm(`Do you need a "build" command?`, true)
	if err != nil {
		return config.Service{}, err
	}
	if useBuild {
		if svc.Commands.Build, err = prompter.Input(`Specify "build" command`,
			defaultBuildCommand, nil); err != nil {
			return config.Service{}, err
		}
	}

	if svc.Commands.Start, err = prompter.Input(`Specify "start" command`,
		defaultStartCommand, nil); err != nil {
		return config.Service{}, err
	}

	port, err := prompter.Input(`Specify required environment variable "PORT"`,
		defaultPort, validatePort)
	if err != nil {
		return config.Service{}, err
	}
	svc.Environment = map[string]string{"PORT": port}
	return svc, nil
}

// costString describes `size` along with its price. The catalog's base cost
// is expressed in units of BaseValue, e.g. cents when BaseValue is 100.
func costString(size proto.Size, catalog proto.DeployDataPayload) string {
	unit := catalog.BaseValue
	if unit == 0 {
		unit = 1
	}

	month := catalog.BaseCost * size.Multiplier / unit
	hour := month / hoursPerMonth
	return fmt.Sprintf("%s (%s RAM): %.2f %s/month, %.4f %s/hour",
		size.Name, size.Memory, month, currency, hour, currency)
}
