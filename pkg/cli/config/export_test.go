package config

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(clientID, clientSecret, signingSecret string) *Slack {
	return &Slack{
		clientID:      clientID,
		clientSecret:  clientSecret,
		signingSecret: signingSecret,
	}
}

// NewVaultForTest creates a Vault config for testing purposes
func NewVaultForTest(encryptionKey string) *Vault {
	return &Vault{
		encryptionKey: encryptionKey,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, sqlitePath, projectID, databaseID string) *Repository {
	return &Repository{
		backend:    backend,
		sqlitePath: sqlitePath,
		projectID:  projectID,
		databaseID: databaseID,
	}
}

// NewAppForTest creates an App config for testing purposes
func NewAppForTest(configPath string) *App {
	return &App{
		configPath: configPath,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}
