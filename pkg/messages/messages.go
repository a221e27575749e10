package messages

// User facing messages. Anything that is sent back to a member lives here.
const (
	ErrUserErrorProcessing = "There was an error processing your request. Please try again later."
	ErrMissingRole         = "You do not have the role required to use this command."
	ErrNotATicket          = "This channel is not a ticket."
	ErrTicketWrongState    = "This ticket cannot do that right now (it is %s)."
	ErrTicketBusy          = "This ticket is already being processed."
	ErrArchivalFailed      = "The transcript could not be saved, the channel has been kept. Use **Delete without transcript** to remove it anyway."
	ErrHelpdeskUnreachable = "The helpdesk category could not be reached, the ticket was not created."
	ErrUnsupportedLanguage = "`%s` is not a supported language code."
	ErrTranslateFailed     = "The translation service is unavailable right now."
	ErrMemberNotFound      = "That member could not be found."
	ErrNotFound            = "The requested item could not be found."
	ErrDMFailed            = "The DM could not be delivered to <@%s>."
	ErrBotPermission       = "I do not have permission to do that here."
	ErrNotInGuild          = "This command can only be used in the server."
	ErrUnknownAction       = "That button is no longer supported."
	ErrAlreadyRestricted   = "That member is already restricted. Use `/unrestrict` first."

	MsgChatSent        = "Message sent to <#%s>."
	MsgDMSent          = "DM sent to <@%s>: %s"
	MsgWorking         = "Working on it, I will follow up when done."
	MsgTicketOpened    = "Ticket <#%s> opened for <@%s>."
	MsgTicketClosed    = "<@%s> closed this ticket. Staff can now finish it."
	MsgTicketArchived  = "Ticket archived as `%s`."
	MsgTicketDeleted   = "Ticket deleted without a transcript."
	MsgParticipantAdd  = "Added <@%s> to this ticket."
	MsgTranscriptSaved = "Transcript saved as `%s`."
	MsgPanelPosted     = "Ticket panel posted in <#%s>."
	MsgRestricted      = "Restricted <@%s>: %d channel(s) hidden, %d skipped. Ticket: %s"
	MsgUnrestricted    = "Unrestricted <@%s>: %d channel(s) revealed, %d skipped."
	MsgUnrestrictNoLog = "No restriction record was found, the channels currently visible to me were used instead."
	MsgShutdown        = "Shutting down, requested by <@%s>."
	MsgTranslation     = "**%s → %s**\n%s"
	MsgStatsEmpty      = "No messages to report on in <#%s>."
	MsgAutomodPromo    = "Your message in <#%s> was removed: promotion and commission posts are not allowed there."
)
