package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dgallion1/docvoice/internal/synth"
)

// Callback data carried by inline keyboard buttons.
const (
	cbDirect      = "tts_direct"
	cbEnhanced    = "tts_ai"
	cbModelInfo   = "model_info"
	cbHelpInfo    = "help_info"
	cbBackToStart = "back_to_start"
)

// Buttons from older keyboards still in chat history.
var legacyCallbacks = map[string]string{
	"tts_gtts": cbDirect,
	"tts_groq": cbEnhanced,
}

// telegramTextLimit is the longest text message Telegram accepts, in UTF-16
// code units.
const telegramTextLimit = 4096

var commands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show the welcome message"},
	{Command: "help", Description: "Show help"},
	{Command: "echo", Description: "Echo back your message"},
	{Command: "pdf2mp3", Description: "Convert a document to MP3"},
	{Command: "extract", Description: "Extract text only"},
	{Command: "tts_model", Description: "Choose the speech backend"},
	{Command: "current_model", Description: "Show the current speech backend"},
}

const commandList = "• /start - Show this welcome message\n" +
	"• /help - Show help information\n" +
	"• /echo <text> - Echo back your message\n" +
	"• /pdf2mp3 - Convert a document to MP3 audio\n" +
	"• /extract - Extract text from a document only\n" +
	"• /tts_model - Choose the speech backend\n" +
	"• /current_model - Show the current speech backend\n"

func welcomeText(firstName string) string {
	return fmt.Sprintf("Hi %s!\n\n"+
		"I turn documents into MP3 audio.\n\n"+
		"Commands:\n%s\n"+
		"How to use:\n"+
		"1. Choose a speech backend below\n"+
		"2. Send me a PDF, DOCX, Markdown, HTML, CSV or text file\n"+
		"3. Get your MP3 audio back\n\n"+
		"Choose a speech backend:", firstName, commandList)
}

var helpText = "Document to MP3 bot\n\n" +
	"Commands:\n" + commandList + "\n" +
	"Speech backends:\n\n" +
	backendSummary(synth.IDDirect) + "\n" +
	backendSummary(synth.IDEnhanced) + "\n" +
	"To convert:\n" +
	"1. Pick a backend: /tts_model direct or /tts_model ai-enhanced\n" +
	"2. Send a document\n" +
	"3. Receive one audio file per part\n\n" +
	"If a backend runs out of quota you still get the extracted text. " +
	"Send a document with the caption /extract to get only its text."

const (
	pdf2mp3Text = "Send me a document and I'll convert it to MP3 audio with your selected backend.\n\n" +
		"If the backend runs out of quota you'll get the extracted text instead."
	extractText = "Send me a document with the caption /extract and I'll send back its text without converting it to audio."

	echoUsage         = "Please provide a message to echo. Usage: /echo <your message>"
	unknownCommand    = "Unknown command. Use /help to see what I can do."
	unsupportedFormat = "Please send a PDF, DOCX, Markdown, HTML, CSV or plain text file for conversion to MP3."
	processingText    = "Document received! Processing..."
	emptyTextMessage  = "Sorry, I couldn't extract any text from this document. It might be image-based or corrupted."
	failedMessage     = "Sorry, there was an error converting the text to speech. Please try again later."
	errorMessage      = "Sorry, there was an error processing your document."
	questionReply     = "That's an interesting question!"
)

func tooLargeText(limit int64) string {
	return fmt.Sprintf("Sorry, that file is too large. The limit is %d MB.", limit>>20)
}

func backendSummary(id synth.ID) string {
	info := synth.Describe(id)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)\n", info.Emoji, info.Name, id)
	for _, f := range info.Features {
		fmt.Fprintf(&b, "• %s\n", f)
	}
	return b.String()
}

func backendName(id synth.ID) string {
	return synth.Describe(id).Name
}

func modelUsage(current synth.ID) string {
	return fmt.Sprintf("Current speech backend: %s (%s)\n\n"+
		"Usage: /tts_model <direct|ai-enhanced>\n\n"+
		"Available backends:\n"+
		"• direct (or gtts) - Google Text-to-Speech, free and fast\n"+
		"• ai-enhanced (or groq) - Groq rewrites the text before speech", backendName(current), current)
}

const invalidModel = "❌ Unknown backend. Please use:\n" +
	"• /tts_model direct - Google Text-to-Speech\n" +
	"• /tts_model ai-enhanced - Groq AI rewrite, then speech"

func modelSetText(id synth.ID) string {
	return fmt.Sprintf("✅ Speech backend set to: %s (%s)\n\nYour conversions will now use %s.", backendName(id), id, backendName(id))
}

func currentModelText(id synth.ID) string {
	info := synth.Describe(id)
	return fmt.Sprintf("Current speech backend: %s (%s)\n"+
		"Description: %s %s - %s\n\n"+
		"Use /tts_model to change it.", info.Name, id, info.Emoji, info.Name, info.Description)
}

func selectedText(id synth.ID) string {
	return fmt.Sprintf("✅ %s selected!\n\n%s\nSend me a document to convert to MP3!", backendName(id), backendSummary(id))
}

func modelInfoText() string {
	return "Speech backend information\n\n" +
		backendSummary(synth.IDDirect) + "\n" +
		backendSummary(synth.IDEnhanced) + "\n" +
		"Choose your preferred backend:"
}

var shortHelpText = "Bot help\n\nCommands:\n" + commandList + "\n" +
	"How to use:\n" +
	"1. Choose a speech backend\n" +
	"2. Send me a document\n" +
	"3. Get your MP3 audio back\n\n" +
	"Choose a speech backend:"

func quotaText(id synth.ID, fallback string) string {
	var reason string
	if id == synth.IDEnhanced {
		reason = "❌ Groq API quota exceeded!\n\n" +
			"The Groq API is rate limiting requests or the quota is used up.\n\n" +
			"Please try again later or switch with /tts_model direct"
	} else {
		reason = "❌ Google TTS quota exceeded!\n\n" +
			"Google Text-to-Speech is rate limiting requests.\n\n" +
			"Please try again later or use the extracted text below"
	}
	return reason + "\n\n📄 Extracted text:\n" + fallback
}

func doneText(id synth.ID, count int) string {
	return fmt.Sprintf("Successfully converted your document to MP3 using %s! Sent %d audio file(s).", backendName(id), count)
}

func audioTitle(index int) string {
	return fmt.Sprintf("Document Audio - Part %d", index)
}

func startKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇺🇸 Google TTS (Free)", cbDirect),
			tgbotapi.NewInlineKeyboardButtonData("🤖 Groq AI (Enhanced)", cbEnhanced),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Model Info", cbModelInfo),
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", cbHelpInfo),
		),
	)
}

func modelInfoKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇺🇸 Google TTS", cbDirect),
			tgbotapi.NewInlineKeyboardButtonData("🤖 Groq AI", cbEnhanced),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", cbBackToStart),
		),
	)
}

func helpKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇺🇸 Google TTS", cbDirect),
			tgbotapi.NewInlineKeyboardButtonData("🤖 Groq AI", cbEnhanced),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Model Info", cbModelInfo),
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", cbBackToStart),
		),
	)
}

// chatReply answers plain text without any model in the loop.
func chatReply(firstName, text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "hello", "hi", "hey":
		return fmt.Sprintf("Hello %s!", firstName)
	case "bye", "goodbye", "see you":
		return fmt.Sprintf("Goodbye %s!", firstName)
	}
	if strings.Contains(text, "?") {
		return questionReply
	}
	return fmt.Sprintf("You said: '%s'\n\nI'm a simple bot, but I'm listening!", text)
}
