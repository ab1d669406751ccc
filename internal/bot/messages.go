package bot

const (
	msgWelcome = "🤖 *Bot de Gerenciamento de Pedidos*\n\n" +
		"*Comandos disponíveis:*\n" +
		"/start - Exibir esta mensagem\n" +
		"/add\\_pedido - Cadastrar novo pedido\n" +
		"/buscar - Buscar pedido por Nome/CPF/ID\n" +
		"/listar - Listar últimos pedidos\n" +
		"/pdf <id> - Gerar PDF de um pedido\n" +
		"/status <id> <status> - Alterar status de um pedido\n" +
		"/token - Gerar token de acesso à API\n" +
		"/cancel - Cancelar operação atual"

	msgAccessDenied = "❌ Acesso negado. Apenas administradores podem adicionar pedidos."
	msgAdminOnly    = "❌ Acesso negado. Apenas administradores podem usar este comando."
	msgSearchUsage  = "🔍 *Buscar Pedido*\n\n" +
		"Use: /buscar <termo>\n" +
		"Exemplo: /buscar João Silva\n\n" +
		"Você pode buscar por:\n" +
		"• Nome do cliente\n" +
		"• CPF\n" +
		"• ID do pedido"
	msgNoResults           = "❌ Nenhum pedido encontrado."
	msgFound               = "📋 Encontrados *%d* pedido(s):"
	msgNoOrders            = "📋 Ainda não há pedidos cadastrados."
	msgRecentHeader        = "📋 Últimos %d pedidos:\n\n"
	msgPDFUsage            = "📄 *Gerar PDF*\n\nUse: /pdf <id\\_do\\_pedido>\nExemplo: /pdf abc123"
	msgOrderNotFound       = "❌ Pedido não encontrado."
	msgGeneratingPDF       = "⏳ Gerando PDF..."
	msgPDFFailed           = "❌ Erro ao gerar PDF. Tente novamente."
	msgPDFCaption          = "📄 Comprovante do pedido %s"
	msgPDFSent             = "✅ PDF enviado!"
	msgStatusUsage         = "Use: /status <id> <pendente|entregue|cancelado>"
	msgStatusUpdated       = "✅ Status do pedido %s atualizado para %s."
	msgStatusFailed        = "❌ Erro ao atualizar status."
	msgMarkedDelivered     = "✅ Marcado como entregue!"
	msgTokenIssued         = "🔑 Token de acesso à API (válido por 24 horas):\n\n%s"
	msgTokenFailed         = "❌ Erro ao gerar token."
	msgUnknownCommand      = "Comando desconhecido. Use /start para ver os comandos disponíveis."
	msgButtonPDF           = "📄 Gerar PDF"
	msgButtonMarkDelivered = "✅ Marcar Entregue"
)
