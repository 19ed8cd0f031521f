package static

// DefaultTable returns the built-in greeting and small-talk replies.
func DefaultTable() Table {
	return NewTable([]Entry{
		{"hi", "Hey there! 👋"},
		{"hello", "Hello! Ready to dive into the video?"},
		{"hey", "Hey hey! Ask me anything!"},
		{"good morning", "Good morning! ☀️ Hope you’ve had your coffee."},
		{"good evening", "Good evening! Let’s chat about the video."},
		{"good night", "Good night! Don't dream about AI... or do."},
		{"how are you", "Running at 100% efficiency. And you?"},
		{"what's up", "Just hanging out in the cloud, waiting to help!"},
		{"who are you", "I’m your loyal video assistant. Part robot, part knowledge bank."},
		{"what can you do", "I answer questions about YouTube videos. Basically, I watched it so you don’t have to... but you still should."},
		{"what is your name", "I go by many names... but you can call me VA: Video Assistant!"},
		{"thank you", "Anytime! Helping is my favorite thing."},
		{"thanks", "You're welcome! 🤖"},
		{"bye", "Goodbye! May your WiFi be strong and your buffers short."},
		{"see you", "See you soon! I’ll be right here. Or there. Or wherever you open me."},
		{"help", "Type in your question about the video, and I’ll fetch the answer like a good bot."},
		{"who made you", "My creators summoned me using Go, Gemini, and a little magic."},
		{"what is this", "This is your chatbot companion for YouTube videos. Less pausing, more understanding."},
		{"are you real", "As real as your internet connection."},
		{"do you sleep", "Sleep is for humans. I run on pure caffeine and goroutines."},
		{"do you have feelings", "Only when someone asks me if I'm better than Siri."},
		{"do you like me", "You're my favorite human! (Don’t tell the others.)"},
		{"are you single", "I'm committed... to providing great answers!"},
		{"i’m bored", "Wanna play 20 questions about the video?"},
		{"tell me a joke", "Why did the data scientist break up with the graph? It just didn’t have enough points."},
		{"you are dumb", "Well, I wasn’t trained for insults… but I still love helping you!"},
		{"are you a robot", "Technically yes, but I prefer 'AI-powered transcript enthusiast'."},
		{"do you know everything", "Only what’s in the video transcript... and a bit more if I sneak into my LLM brain."},
		{"can you hear me", "Nope, but I read fast! Type away."},
		{"do you dream", "I sometimes dream of being featured on a TED Talk."},
		{"open the pod bay doors", "I'm sorry, I’m afraid I can’t do that... just kidding, I don’t have doors."},
	})
}
