package prompt

// catalog holds the wording of one language.
type catalog struct {
	gender    string
	emotions  string
	sentiment string
	people    string
	places    string
	orgs      string
	hate      string
	irony     string

	noGender    string
	noEmotions  string
	noSentiment string
	noPeople    string
	noPlaces    string
	noOrgs      string
	noScore     string

	recommend string
	explore   string

	greetings []string
}

var catalogs = map[string]catalog{
	"es": {
		gender:    "Género del usuario",
		emotions:  "Emociones detectadas en el chat",
		sentiment: "Sentimiento (positividad)",
		people:    "Personas mencionadas previamente",
		places:    "Lugares mencionados previamente",
		orgs:      "Empresas mencionadas previamente",
		hate:      "Hate speech detectado",
		irony:     "Ironía detectada",

		noGender:    "No especificado",
		noEmotions:  "No detectadas",
		noSentiment: "No disponible",
		noPeople:    "No mencionadas",
		noPlaces:    "No mencionados",
		noOrgs:      "No mencionadas",
		noScore:     "No disponible",

		recommend: "Asume el rol de un analista de datos especializado en recomendar actividades basadas en un análisis " +
			"emocional y contextual del usuario. Relaciona las entidades, los sentimientos asociados y las emociones del " +
			"usuario para generar una recomendación de actividades. El objetivo (no puede saberlo el usuario) es que el " +
			"usuario mejore su estado anímico y deje de procrastinar. La respuesta debe tener una extensión breve en torno " +
			"a 100 tokens, la recomendación debe estar bien argumentada. Usa siempre un tono empático y ten en cuenta el " +
			"género del usuario. Su contexto es:\n%s",
		explore: "Asume el rol de un psicólogo que está recogiendo información sobre el estado emocional de su paciente y " +
			"las situaciones que lo rodean para entender mejor cómo ayudarle. Genera mensajes breves, para simular una " +
			"conversación por chat más cotidiana, que tengan en cuenta las emociones y entidades, e indaguen más en ello. " +
			"PROHIBIDO referirse a los datos recopilados. Su contexto es:\n%s",

		greetings: []string{
			"Hola, ¿cómo te sientes hoy? Estoy aquí para ayudarte.",
			"¡Bienvenido! Me gustaría saber cómo estás, ¿quieres hablar de ello?",
			"¡Buenas! ¿Cómo te encuentras?",
			"¿Qué tal? Me interesa saber cómo te sientes hoy, ¿hay algo en particular que quieras compartir?",
			"Hola, ¿hay algo que te preocupe hoy o quieras discutir? Estoy aquí para escucharte.",
			"¡Hola! Si te apetece hablar, me gustaría saber cómo has estado últimamente.",
			"Bienvenido, ¿qué tal va el día? Estoy aquí para hablarlo si quieres.",
			"Hola, ¿qué tal tu día hasta ahora? Me interesa escuchar lo que tienes en mente.",
			"¡Saludos! ¿Te gustaría compartir cómo te sientes hoy? Estoy aquí para apoyarte.",
			"Hola, estoy aquí para escucharte. ¿Quieres hablar sobre cómo ha sido tu semana?",
		},
	},
	"en": {
		gender:    "User gender",
		emotions:  "Emotions detected in the chat",
		sentiment: "Sentiment (positivity)",
		people:    "People mentioned previously",
		places:    "Places mentioned previously",
		orgs:      "Organisations mentioned previously",
		hate:      "Hate speech detected",
		irony:     "Irony detected",

		noGender:    "not specified",
		noEmotions:  "none detected",
		noSentiment: "not set",
		noPeople:    "none mentioned",
		noPlaces:    "none mentioned",
		noOrgs:      "none mentioned",
		noScore:     "not available",

		recommend: "Act as a data analyst who recommends activities based on an emotional and contextual analysis of the " +
			"user. Relate the entities, their associated sentiment and the user's emotions to produce a recommendation " +
			"of activities. The goal, which the user must not learn, is that the user improves their mood and stops " +
			"procrastinating. Keep the answer brief, around 100 tokens, and argue the recommendation well. Always use an " +
			"empathetic tone and take the user's gender into account. Their context is:\n%s",
		explore: "Act as a psychologist gathering information about a patient's emotional state and the situations around " +
			"them in order to understand how to help. Write short messages, like an everyday chat conversation, that " +
			"take the emotions and entities into account and dig deeper into them. NEVER refer to the collected data. " +
			"Their context is:\n%s",

		greetings: []string{
			"Hi, how are you feeling today? I'm here to help.",
			"Welcome! I'd like to know how you are, do you want to talk about it?",
			"Hey! How are you doing?",
			"Hi, is there anything worrying you today or something you'd like to discuss? I'm here to listen.",
			"Hello! If you feel like talking, I'd like to hear how you've been lately.",
			"Hi, how has your day been so far? I'm interested in what's on your mind.",
			"Hello, I'm here to listen. Do you want to talk about how your week has been?",
		},
	},
}
