package bot

import (
	"fmt"
	"strconv"

	"github.com/chillchat/community-bot/internal/domain"
	"github.com/chillchat/community-bot/internal/locale"

	"github.com/go-telegram/bot/models"
)

// Callback data values shared by the handler and the wizard
const (
	cbListEvents  = "list_events"
	cbRegister    = "register"
	cbBackHome    = "back_home"
	cbBackStep    = "back_step"
	cbAcceptRules = "accept_rules"
	cbAgeSkip     = "age_skip"
	cbFAQ         = "faq"
	cbSupport     = "support"
	cbFeedback    = "feedback"

	cbEventPrefix     = "event:"     // event:<id> — show event detail
	cbRegisterPrefix  = "register:"  // register:<id> — start wizard from event detail
	cbPickRegPrefix   = "pickreg:"   // pickreg:<id> — start wizard from the menu picker
	cbGenderPrefix    = "gender:"    // gender:<value>
	cbLevelPrefix     = "lvl:"       // lvl:<band>
	cbInfoPrefix      = "info:"      // info:<key> — static info pages
	cbCancelRegPrefix = "cancel_reg:" // cancel_reg:<event id>
)

// Static info pages reachable from the home menu, keyed by callback suffix
var infoPages = map[string]string{
	"location":   locale.InfoLocation,
	"menu":       locale.InfoCafeMenu,
	"book_club":  locale.InfoBookClub,
	"live_music": locale.InfoLiveMusic,
	"newsletter": locale.InfoNewsletter,
	"networking": locale.InfoNetworking,
	"suggestion": locale.InfoSuggestion,
}

// restartKeyboard is the single global reply keyboard; its one button is
// the restart shortcut recognized at every wizard step
func restartKeyboard(l locale.Localizer) *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: l.MustLocalize(locale.RestartButton)}},
		},
		ResizeKeyboard: true,
	}
}

// contactKeyboard is shown only at the phone step
func contactKeyboard(l locale.Localizer) *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: l.MustLocalize(locale.PhoneShareButton), RequestContact: true}},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

func mainMenuKeyboard(l locale.Localizer) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		{{Text: l.MustLocalize(locale.MenuEvents), CallbackData: cbListEvents}},
		{{Text: l.MustLocalize(locale.MenuRegister), CallbackData: cbRegister}},
		{{Text: l.MustLocalize(locale.MenuFAQ), CallbackData: cbFAQ}},
		{{Text: l.MustLocalize(locale.MenuSupport), CallbackData: cbSupport}},
		{{Text: l.MustLocalize(locale.MenuLocation), CallbackData: cbInfoPrefix + "location"}},
		{{Text: l.MustLocalize(locale.MenuCafeMenu), CallbackData: cbInfoPrefix + "menu"}},
		{{Text: l.MustLocalize(locale.MenuBookClub), CallbackData: cbInfoPrefix + "book_club"}},
		{{Text: l.MustLocalize(locale.MenuLiveMusic), CallbackData: cbInfoPrefix + "live_music"}},
		{{Text: l.MustLocalize(locale.MenuNewsletter), CallbackData: cbInfoPrefix + "newsletter"}},
		{{Text: l.MustLocalize(locale.MenuNetworking), CallbackData: cbInfoPrefix + "networking"}},
		{{Text: l.MustLocalize(locale.MenuSuggestion), CallbackData: cbInfoPrefix + "suggestion"}},
		{{Text: l.MustLocalize(locale.MenuFeedback), CallbackData: cbFeedback}},
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func backHomeKeyboard(l locale.Localizer) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: l.MustLocalize(locale.BackHomeButton), CallbackData: cbBackHome}},
		},
	}
}

func backStepKeyboard(l locale.Localizer) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: l.MustLocalize(locale.BackButton), CallbackData: cbBackStep}},
		},
	}
}

func rulesKeyboard(l locale.Localizer) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: l.MustLocalize(locale.RulesAcceptButton), CallbackData: cbAcceptRules}},
			{{Text: l.MustLocalize(locale.BackButton), CallbackData: cbBackStep}},
		},
	}
}

func genderKeyboard(l locale.Localizer) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: l.MustLocalize(locale.GenderFemale), CallbackData: cbGenderPrefix + string(domain.GenderFemale)},
				{Text: l.MustLocalize(locale.GenderMale), CallbackData: cbGenderPrefix + string(domain.GenderMale)},
			},
			{{Text: l.MustLocalize(locale.BackButton), CallbackData: cbBackStep}},
		},
	}
}

func ageKeyboard(l locale.Localizer) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: l.MustLocalize(locale.AgeSkipButton), CallbackData: cbAgeSkip}},
			{{Text: l.MustLocalize(locale.BackButton), CallbackData: cbBackStep}},
		},
	}
}

func levelKeyboard(l locale.Localizer) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: l.MustLocalize(locale.LevelBeginner), CallbackData: cbLevelPrefix + string(domain.LevelBeginner)}},
			{{Text: l.MustLocalize(locale.LevelIntermediate), CallbackData: cbLevelPrefix + string(domain.LevelIntermediate)}},
			{{Text: l.MustLocalize(locale.LevelAdvanced), CallbackData: cbLevelPrefix + string(domain.LevelAdvanced)}},
			{{Text: l.MustLocalize(locale.BackButton), CallbackData: cbBackStep}},
		},
	}
}

// eventListKeyboard lists the catalog; prefix decides whether tapping an
// event opens its detail view or starts registration directly
func eventListKeyboard(l locale.Localizer, catalog *domain.Catalog, prefix string) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, ev := range catalog.All() {
		rows = append(rows, []models.InlineKeyboardButton{
			{
				Text:         fmt.Sprintf("%s | %s", ev.Title, ev.When),
				CallbackData: prefix + ev.ID,
			},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: l.MustLocalize(locale.BackHomeButton), CallbackData: cbBackHome},
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func eventDetailKeyboard(l locale.Localizer, eventID string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: l.MustLocalize(locale.EventRegisterButton), CallbackData: cbRegisterPrefix + eventID}},
			{{Text: l.MustLocalize(locale.BackHomeButton), CallbackData: cbListEvents}},
		},
	}
}

// eventDetailText renders an event for applicants: the address stays
// hidden until approval
func eventDetailText(l locale.Localizer, ev *domain.Event, remaining int) string {
	text := fmt.Sprintf("*%s*\n🕒 %s", ev.Title, ev.When)
	if ev.Price != "" {
		text += fmt.Sprintf("\n💶 %s", ev.Price)
	}
	if ev.Description != "" {
		text += fmt.Sprintf("\n\n📝 %s", ev.Description)
	}
	if remaining != domain.Unlimited {
		text += "\n" + l.MustLocalizeWithTemplate(locale.EventRemainingSeats, strconv.Itoa(remaining))
	}
	text += "\n\n" + l.MustLocalize(locale.EventAddressHidden)
	return text
}
