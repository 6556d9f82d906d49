package main

import "github.com/tifye/crossroads/sim"

type SimulatorConfig struct {
	World      sim.Config
	Iterations int
	traffic    trafficConfig
	spectators spectatorConfig
}

func V1Config() SimulatorConfig {
	return SimulatorConfig{
		World:      sim.DefaultConfig(),
		Iterations: 5_000,
		traffic: trafficConfig{
			ExtraSpawnProbability: 15,
		},
		spectators: spectatorConfig{
			ConnectProbability:                10,
			DisconnectProbability:             5,
			InvalidDisconnectFaultProbability: 30,
			SubscribeProbability:              20,
			UnsubscribeProbability:            10,
		},
	}
}

// CongestedConfig runs a small crowded world with mismatched light
// cycles, so phase conflicts and blocked entries are common.
func CongestedConfig() SimulatorConfig {
	cfg := V1Config()
	cfg.World.GridWidth = 30
	cfg.World.GridHeight = 14
	cfg.World.IntersectionX = 15
	cfg.World.IntersectionY = 7
	cfg.World.MaxCars = 12
	cfg.World.SpawnInterval = 2
	cfg.World.EWLight = sim.LightDurations{Green: 7, Yellow: 2, Red: 13}
	cfg.traffic.ExtraSpawnProbability = 60
	return cfg
}
