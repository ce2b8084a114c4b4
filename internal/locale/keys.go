package locale

// Message key constants for localization.
// All user-facing messages go through these constants.

const (
	// Home menu
	Welcome        = "Welcome"
	ChoosePrompt   = "ChoosePrompt"
	RestartButton  = "RestartButton"
	BackButton     = "BackButton"
	BackHomeButton = "BackHomeButton"

	MenuEvents     = "MenuEvents"
	MenuRegister   = "MenuRegister"
	MenuFAQ        = "MenuFAQ"
	MenuSupport    = "MenuSupport"
	MenuLocation   = "MenuLocation"
	MenuCafeMenu   = "MenuCafeMenu"
	MenuBookClub   = "MenuBookClub"
	MenuLiveMusic  = "MenuLiveMusic"
	MenuNewsletter = "MenuNewsletter"
	MenuNetworking = "MenuNetworking"
	MenuSuggestion = "MenuSuggestion"
	MenuFeedback   = "MenuFeedback"

	// Static info texts
	InfoFAQ        = "InfoFAQ"
	InfoLocation   = "InfoLocation"
	InfoCafeMenu   = "InfoCafeMenu"
	InfoBookClub   = "InfoBookClub"
	InfoLiveMusic  = "InfoLiveMusic"
	InfoNewsletter = "InfoNewsletter"
	InfoNetworking = "InfoNetworking"
	InfoSuggestion = "InfoSuggestion"
	InfoSupport    = "InfoSupport"

	// Feedback forwarding
	FeedbackPrompt = "FeedbackPrompt"
	FeedbackThanks = "FeedbackThanks"

	// Events
	EventListTitle      = "EventListTitle"
	EventNotFound       = "EventNotFound"
	EventRegisterButton = "EventRegisterButton"
	EventAddressHidden  = "EventAddressHidden"
	EventPickPrompt     = "EventPickPrompt"
	EventRemainingSeats = "EventRemainingSeats"

	// Registration wizard
	RulesText         = "RulesText"
	RulesAcceptButton = "RulesAcceptButton"
	AskName           = "AskName"
	NameInvalid       = "NameInvalid"
	AskGender         = "AskGender"
	GenderFemale      = "GenderFemale"
	GenderMale        = "GenderMale"
	AskAge            = "AskAge"
	AgeSkipButton     = "AgeSkipButton"
	AgeSkipWord       = "AgeSkipWord"
	AgeInvalid        = "AgeInvalid"
	AskLevel          = "AskLevel"
	LevelBeginner     = "LevelBeginner"
	LevelIntermediate = "LevelIntermediate"
	LevelAdvanced     = "LevelAdvanced"
	AskPhone          = "AskPhone"
	PhoneShareButton  = "PhoneShareButton"
	PhoneBackHint     = "PhoneBackHint"
	PhoneReceived     = "PhoneReceived"
	AskNote           = "AskNote"
	NotProvided       = "NotProvided"

	// Submission and approval
	SubmissionAck       = "SubmissionAck"
	SubmissionEventLine = "SubmissionEventLine"
	CapacityFullUser    = "CapacityFullUser"
	GenderCapFullUser   = "GenderCapFullUser"
	AlreadyPendingUser  = "AlreadyPendingUser"
	AlreadyOnRosterUser = "AlreadyOnRosterUser"
	ApprovedUser        = "ApprovedUser"
	ApprovedAutoNote    = "ApprovedAutoNote"
	ApprovedLinkLine    = "ApprovedLinkLine"
	RejectedUser        = "RejectedUser"
	AutoCancelledUser   = "AutoCancelledUser"
	TicketCaption       = "TicketCaption"
	CancelRegButton     = "CancelRegButton"
	CancelRegDone       = "CancelRegDone"
	CancelRegNone       = "CancelRegNone"

	// Admin side
	AdminNewRegistration = "AdminNewRegistration"
	AdminEventDetails    = "AdminEventDetails"
	AdminApproveButton   = "AdminApproveButton"
	AdminRejectButton    = "AdminRejectButton"
	AdminApprovedStamp   = "AdminApprovedStamp"
	AdminRejectedStamp   = "AdminRejectedStamp"
	AdminAutoStamp       = "AdminAutoStamp"
	AdminCancelledStamp  = "AdminCancelledStamp"
	AdminAlreadyHandled  = "AdminAlreadyHandled"
	AdminDone            = "AdminDone"
	AdminCapacityFull    = "AdminCapacityFull"
	ErrorUnauthorized    = "ErrorUnauthorized"
	ErrorGeneric         = "ErrorGeneric"
	BroadcastUsage       = "BroadcastUsage"
	BroadcastDone        = "BroadcastDone"
	RosterUsage          = "RosterUsage"
	RosterEmpty          = "RosterEmpty"
	RosterHeader         = "RosterHeader"
	BoardHeader          = "BoardHeader"
	BoardUnlimited       = "BoardUnlimited"
)
