package config

// Well-known ports for weir services. Control-plane roles bind fixed ports;
// worker and node processes bind ephemeral ports because several of them may
// share a host.
const (
	// PortAPI is the HTTP port of the api service.
	PortAPI = 8000

	// PortCompiler is the gRPC port of the compiler service.
	PortCompiler = 9000

	// PortController is the gRPC port of the controller service.
	PortController = 9190

	// PortAdmin is the admin/health port for control-plane roles.
	PortAdmin = 9191

	// PortEphemeral asks the OS to assign a port.
	PortEphemeral = 0
)
