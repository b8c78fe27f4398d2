package ctdf

type TransitMode string

const (
	TransitModeBus        TransitMode = "BUS"
	TransitModeCoach      TransitMode = "COACH"
	TransitModeRail       TransitMode = "RAIL"
	TransitModeTram       TransitMode = "TRAM"
	TransitModeSubway     TransitMode = "SUBWAY"
	TransitModeFerry      TransitMode = "FERRY"
	TransitModeCableCar   TransitMode = "CABLE_CAR"
	TransitModeGondola    TransitMode = "GONDOLA"
	TransitModeFunicular  TransitMode = "FUNICULAR"
	TransitModeTrolleybus TransitMode = "TROLLEYBUS"
	TransitModeMonorail   TransitMode = "MONORAIL"
	TransitModeAirplane   TransitMode = "AIRPLANE"
)

const (
	SubModeReplacementRailService = "replacementRailService"
	SubModeRailReplacementBus     = "railReplacementBus"
)

// TransitModeFromGTFSRouteType maps basic and extended GTFS route_type values
func TransitModeFromGTFSRouteType(routeType int) TransitMode {
	switch {
	case routeType == 0 || (routeType >= 900 && routeType < 1000):
		return TransitModeTram
	case routeType == 1 || (routeType >= 400 && routeType < 500):
		return TransitModeSubway
	case routeType == 2 || (routeType >= 100 && routeType < 200):
		return TransitModeRail
	case routeType == 4 || (routeType >= 1000 && routeType < 1300):
		return TransitModeFerry
	case routeType == 5:
		return TransitModeCableCar
	case routeType == 6 || routeType == 1300:
		return TransitModeGondola
	case routeType == 7 || routeType == 1400:
		return TransitModeFunicular
	case routeType == 11 || routeType == 800:
		return TransitModeTrolleybus
	case routeType == 12 || routeType == 405:
		return TransitModeMonorail
	case routeType >= 200 && routeType < 300:
		return TransitModeCoach
	case routeType >= 1100 && routeType < 1200:
		return TransitModeAirplane
	default:
		return TransitModeBus
	}
}
