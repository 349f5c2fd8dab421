package commands

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var commandCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_commands",
	Help: "Number of commands invoked, by outcome",
}, []string{"command", "outcome"})
