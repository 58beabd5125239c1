package auth

const GenericMessage = "Ocorreu um erro. Tente novamente."

var messages = map[Code]string{
	CodeInvalidEmail:      "O formato do e-mail é inválido.",
	CodeUserNotFound:      "E-mail ou senha incorretos.",
	CodeWrongPassword:     "E-mail ou senha incorretos.",
	CodeEmailAlreadyInUse: "Este e-mail já está em uso.",
	CodeWeakPassword:      "A senha precisa ter no mínimo 6 caracteres.",
	CodePopupClosedByUser: "A janela de login com Google foi fechada.",
}

// Message is the pt-BR text shown for err on the login and signup pages.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := messages[ErrorCode(err)]; ok {
		return msg
	}
	return GenericMessage
}
