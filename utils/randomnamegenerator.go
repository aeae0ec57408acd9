package utils

import (
	"math/rand"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator hands out reproducible names that never repeat.
type RandomNameGenerator map[string]struct{}

func (rng *RandomNameGenerator) init() {
	if *rng == nil {
		*rng = make(map[string]struct{})
		randomdata.CustomRand(rand.New(rand.NewSource(0)))
	}
}

func (rng *RandomNameGenerator) RandomName() string {
	rng.init()
	for {
		name := randomdata.SillyName()
		// avoid duplicate names
		if _, exists := (*rng)[name]; !exists {
			(*rng)[name] = struct{}{}
			return name
		}
	}
}

// Name returns name unless it is empty or already taken.
func (rng *RandomNameGenerator) Name(name string) string {
	rng.init()
	if name == "" {
		return rng.RandomName()
	}
	if _, exists := (*rng)[name]; exists {
		return name + "_" + rng.RandomName()
	}
	(*rng)[name] = struct{}{}
	return name
}
