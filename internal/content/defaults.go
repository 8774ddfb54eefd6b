package content

// Default returns the built-in tables
func Default() *Tables {
	return &Tables{
		Words:        clone(defaultWords),
		AdultWords:   clone(defaultAdultWords),
		Phrases:      clone(defaultPhrases),
		AdultPhrases: clone(defaultAdultPhrases),
		Locations:    clone(defaultLocations),
	}
}

func clone(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}

var defaultWords = []string{
	"Cat", "Dog", "Elephant", "Lion", "Tiger", "Bear", "Rabbit", "Wolf", "Fox", "Monkey",
	"Bird", "Fish", "Tree", "Flower", "Sun", "Moon", "Star", "Cloud", "Rain", "Snow",
	"Car", "Airplane", "Ship", "Bicycle", "Train", "House", "School", "Hospital", "Shop", "Park",
	"Sea", "Mountain", "River", "Lake", "Forest", "Beach", "City", "Village", "Book", "Phone",
	"Computer", "Table", "Chair", "Bed", "Window", "Door", "Bread", "Milk", "Apple", "Banana",
	"Ball", "Doll", "Pirate", "Princess", "Knight", "Dragon", "Witch", "Wizard", "Superhero", "Robot",
	"Alien", "Rocket", "Planet", "Comet", "Football", "Basketball", "Tennis", "Swimming", "Running", "Dance",
	"Singing", "Guitar", "Piano", "Drum", "Violin", "Cinema", "Theatre", "Circus", "Concert", "Birthday",
	"New Year", "Present", "Cake", "Candle", "Balloon", "Fireworks",
}

var defaultAdultWords = []string{
	"Kiss", "Hug", "Romance", "Date", "Crush", "Passion", "Temptation", "Flirt",
	"Seduction", "Desire", "Love", "Honeymoon", "Candlelight", "Serenade", "Wink",
}

var defaultPhrases = []string{
	"Red ball", "Big house", "Fast car", "Tall tree", "Pretty bird", "Tasty apple",
	"Loud music", "Quiet night", "Bright sun", "Blue sea", "Green forest", "White snow",
	"Black cat", "Yellow banana", "Purple flower", "Pink doll", "Brown dog", "Grey mouse",
	"Golden star", "Silver coin", "Copper kettle", "Glass vase", "Wooden table", "Iron lock",
	"Plastic bottle", "Paper book", "Leather bag", "Wool sweater", "Cotton shirt", "Broken umbrella",
}

var defaultAdultPhrases = []string{
	"Passionate kiss", "Romantic date", "Whispered secret", "Seductive look", "Long night",
	"Candlelit dinner", "Slow dance", "Warm embrace", "Love letter", "Couple in love",
}

var defaultLocations = []string{
	"Beach", "School", "Hospital", "Restaurant", "Airport", "Bank", "Cinema", "Gym",
	"Library", "Park", "Office", "Supermarket", "Circus", "Museum", "Cafe", "Hotel",
	"Railway station", "Zoo", "Theatre", "Police station",
}
