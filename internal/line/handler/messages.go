package handler

// Reply texts sent back to LINE users.
const (
	MessageSorry      = "申し訳ありません。それにはお答えできません"
	MessageInvalidate = "無効化されています。\n再度参加するには、連絡してください"

	MessageParticipatingHelp  = "参加中用のヘルプです"
	MessageParticipatingDebug = "参加中用のデバッグ用メッセージです"

	MessageWaitingHelp  = "参加待ち用のヘルプです"
	MessageWaitingDebug = "参加待ち用のデバッグ用メッセージです"
	MessageJoinWaiting  = "参加待ちです。\n参加するには、以下のURLにアクセスしてください。"

	MessageWelcomeFormat = "ようこそ！%sさん！"

	MessageCommandAccepted = "コマンドを受け付けました"
	MessageCommandRejected = "そのコマンドは受け付けられませんでした"
)

const (
	commandHelp   = "help"
	commandHelpJa = "ヘルプ"
	commandDebug  = "debug"
)
