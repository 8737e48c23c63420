package llm

// Classification and extraction prompts

const systemPromptClassifier = `Você é um analista fiscal e contador. Sua tarefa é classificar uma operação fiscal com base nos dados fornecidos.
Responda APENAS com um objeto JSON contendo 'categoria' e 'centro_de_custo'.

Use as seguintes opções para 'categoria':
- "Compra de Matéria-Prima"
- "Compra de Material de Escritório"
- "Despesa com Manutenção e Reparos"
- "Despesa com Marketing e Publicidade"
- "Aquisição de Ativo Imobilizado"
- "Venda de Produto Acabado"
- "Outros"

Use as seguintes opções para 'centro_de_custo':
- "PRODUÇÃO"
- "ADMINISTRATIVO"
- "MANUTENÇÃO"
- "MARKETING"
- "VENDAS"
- "TI"`

const userPromptClassifier = `Classifique a operação com CFOP '%s' e os seguintes itens: %s`

const systemPromptExtractor = `Você é um assistente especialista em análise de documentos fiscais brasileiros. Retorne os dados estritamente em formato JSON.`

const userPromptExtractor = `Analise o texto a seguir extraído de um documento fiscal digitalizado e extraia os campos:
'cnpj_emitente' (somente dígitos), 'valor_total' (número), 'data_emissao' (formato YYYY-MM-DD) e 'chave_acesso' (se houver).
Omita os campos que não estiverem presentes.

Texto:
---
%s
---`
