package main

import (
	"os"
	"time"

	routecache "github.com/route-cache/route-cache"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Origin string        `yaml:"origin"`
	Routes []ConfigRoute `yaml:"routes"`
}

type ConfigRoute struct {
	// HTTP method, GET if empty.
	Method string `yaml:"method"`
	Path   string `yaml:"path"`
	// TTL in seconds. Zero uses the default.
	TTL int `yaml:"ttl"`
	// Explicit cache key for the route.
	Key string `yaml:"key"`
	// Key prefix. Empty uses the default.
	Prefix string `yaml:"prefix"`
	// Only cache requests that carry this query parameter.
	RequireQuery string `yaml:"requireQuery"`
	// Key patterns to invalidate after this (mutating) route responds.
	Invalidate []string `yaml:"invalidate"`
}

func getConfig(filename string) (Config, error) {
	var config Config
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}

func (c ConfigRoute) method() string {
	if c.Method == "" {
		return "GET"
	}
	return c.Method
}

func (c ConfigRoute) policy() routecache.Policy {
	policy := routecache.Policy{
		TTL:    time.Duration(c.TTL) * time.Second,
		Key:    c.Key,
		Prefix: c.Prefix,
	}
	if c.RequireQuery != "" {
		param := c.RequireQuery
		policy.Condition = func(req routecache.RequestView) bool {
			return req.Query.Has(param)
		}
	}
	return policy
}
