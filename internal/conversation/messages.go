package conversation

const (
	promptID = "📝 Cadastro de Novo Pedido\n\n" +
		"Digite o ID do pedido ou envie \"gerar\" para criar um ID automático:"
	promptDocumentNumber = "📋 Digite o CPF do cliente (apenas números) ou \"pular\" para deixar em branco:"
	promptName           = "👤 Digite o NOME COMPLETO do cliente:"
	promptProduct        = "📦 Digite o NOME/DESCRIÇÃO do produto:"
	promptValue          = "💰 Digite o VALOR do produto (ex: 89.90 ou 89,90):"
	promptDiscount       = "🏷️ Digite o valor do DESCONTO (0 se não houver, ex: 8.99):"
	promptTransactionID  = "🔖 Digite o ID da transação (se houver) ou \"pular\":"
	promptDate           = "📅 Digite a DATA/HORA (formato: DD/MM/YYYY HH:MM:SS)\n" +
		"ou envie \"agora\" para usar o horário atual:"
	promptConfirm = "Confirma o cadastro? Responda \"sim\" para salvar ou \"não\" para cancelar."

	msgGeneratedID      = "✅ ID gerado: %s"
	msgInvalidID        = "❌ ID inválido. Digite um ID ou \"gerar\":"
	msgIDWithSpaces     = "❌ O ID não pode conter espaços. Digite outro ID ou \"gerar\":"
	msgDuplicateID      = "❌ Este ID já existe no sistema. Digite outro ID ou \"gerar\":"
	msgInvalidDocument  = "❌ CPF inválido. Digite 11 números ou \"pular\":"
	msgShortName        = "❌ Nome muito curto. Digite o nome completo:"
	msgShortProduct     = "❌ Descrição muito curta. Digite novamente:"
	msgInvalidValue     = "❌ Valor inválido. Digite um número válido (ex: 89.90):"
	msgInvalidDiscount  = "❌ Valor inválido. Digite um número válido (ex: 8.99 ou 0):"
	msgDiscountTooLarge = "❌ O desconto não pode ser maior que o valor. Digite novamente:"
	msgInvalidDate      = "❌ Data inválida. Use o formato DD/MM/YYYY HH:MM:SS ou \"agora\":"
	msgSaveFailed       = "❌ Erro ao salvar o pedido. Responda \"sim\" para tentar novamente ou /cancel para desistir."
	msgCommitted        = "✅ Pedido cadastrado com sucesso!\n\nID: %s\nUse /pdf %s para gerar o comprovante."

	// MsgCancelled is sent whenever an intake conversation is aborted.
	MsgCancelled = "❌ Operação cancelada."
)
