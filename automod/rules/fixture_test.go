package rules

import (
	"github.com/oxce5/Discord-bot/automod/engine"
)

func engineFixture() (*engine.Engine, *engine.MockClient) {
	eng, client := engine.EngineTestFixture()
	eng.Rules = DefaultRules("general")
	return eng, client
}
