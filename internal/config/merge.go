package config

// Merge layers the project config over the global config. Project values win
// wherever both are set; zero-value project fields fall through to global.
func Merge(global, project *Config) *Config {
	result := *project

	if result.Server.URL == "" {
		result.Server.URL = global.Server.URL
	}
	if result.Server.Token == "" {
		result.Server.Token = global.Server.Token
	}
	if result.Server.ProbeTimeout == "" {
		result.Server.ProbeTimeout = global.Server.ProbeTimeout
	}
	if result.Server.PollTimeout == "" {
		result.Server.PollTimeout = global.Server.PollTimeout
	}

	if result.Project.Key == "" {
		result.Project.Key = global.Project.Key
	}
	if len(result.Project.Include) == 0 {
		result.Project.Include = global.Project.Include
	}
	if len(result.Project.Exclude) == 0 {
		result.Project.Exclude = global.Project.Exclude
	}

	if result.AI.Model == "" {
		result.AI.Model = global.AI.Model
	}
	if result.AI.MaxTokens == 0 {
		result.AI.MaxTokens = global.AI.MaxTokens
	}
	if result.AI.Parallelism == 0 {
		result.AI.Parallelism = global.AI.Parallelism
	}
	if result.AI.TokenBudget == 0 {
		result.AI.TokenBudget = global.AI.TokenBudget
	}
	if result.AI.SafetyMargin == 0 {
		result.AI.SafetyMargin = global.AI.SafetyMargin
	}

	if result.Cache.TTL == "" {
		result.Cache.TTL = global.Cache.TTL
	}

	if result.Output.Format == "" {
		result.Output.Format = global.Output.Format
	}
	if !result.Output.NoColor && global.Output.NoColor {
		result.Output.NoColor = true
	}

	return &result
}
