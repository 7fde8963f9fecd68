package usecase

// UseCases bundles the application logic handed to the HTTP controller.
type UseCases struct {
	OAuth *OAuthUseCase
	Event *EventUseCases
}

func New(oauth *OAuthUseCase, event *EventUseCases) *UseCases {
	return &UseCases{
		OAuth: oauth,
		Event: event,
	}
}
