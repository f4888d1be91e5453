package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var checkinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tagcheck_checkins_total",
	Help: "Check-in attempts by outcome.",
}, []string{"outcome"})
