package cli

// GetIndexConfigForTest exposes the Firestore index configuration for testing
var GetIndexConfigForTest = getIndexConfig
