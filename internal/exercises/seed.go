package exercises

import "time"

func seedEx(name, kind string, primary, secondary []string, category string) Exercise {
	return Exercise{
		Name:               name,
		Kind:               kind,
		PrimaryBodyParts:   primary,
		SecondaryBodyParts: secondary,
		Category:           category,
	}
}

func parts(bodyParts ...string) []string {
	return bodyParts
}

// SeedCatalogue returns the built-in global exercise catalogue, with every
// entry stamped with the given creation time.
func SeedCatalogue(createdAt time.Time) []Exercise {
	catalogue := []Exercise{
		// chest
		seedEx("Barbell Bench Press", "Barbell", parts("Chest"), parts("Triceps", "Shoulders"), "Strength"),
		seedEx("Incline Barbell Bench Press", "Barbell", parts("Chest"), parts("Shoulders"), "Strength"),
		seedEx("Decline Barbell Bench Press", "Barbell", parts("Chest"), parts("Triceps"), "Strength"),
		seedEx("Dumbbell Bench Press", "Dumbbell", parts("Chest"), parts("Triceps"), "Strength"),
		seedEx("Incline Dumbbell Press", "Dumbbell", parts("Chest"), parts("Shoulders"), "Strength"),
		seedEx("Dumbbell Fly", "Dumbbell", parts("Chest"), parts(), "Strength"),
		seedEx("Cable Fly", "Machine/Other", parts("Chest"), parts(), "Strength"),
		seedEx("Pec Deck", "Machine/Other", parts("Chest"), parts(), "Strength"),
		seedEx("Chest Press Machine", "Machine/Other", parts("Chest"), parts("Triceps"), "Strength"),
		seedEx("Push-Up", "Reps Only", parts("Chest"), parts("Triceps"), "Strength"),
		seedEx("Chest Dips", "Weighted Bodyweight", parts("Chest"), parts("Triceps"), "Strength"),

		// back
		seedEx("Barbell Row", "Barbell", parts("Back"), parts("Biceps"), "Strength"),
		seedEx("Deadlift", "Barbell", parts("Back"), parts("Legs", "Glutes"), "Strength"),
		seedEx("Romanian Deadlift", "Barbell", parts("Back"), parts("Hamstrings"), "Strength"),
		seedEx("T-Bar Row", "Barbell", parts("Back"), parts("Biceps"), "Strength"),
		seedEx("Dumbbell Row", "Dumbbell", parts("Back"), parts("Biceps"), "Strength"),
		seedEx("Lat Pulldown", "Machine/Other", parts("Back"), parts("Biceps"), "Strength"),
		seedEx("Seated Cable Row", "Machine/Other", parts("Back"), parts("Biceps"), "Strength"),
		seedEx("Face Pull", "Machine/Other", parts("Shoulders"), parts("Back"), "Strength"),
		seedEx("Pull-Up", "Weighted Bodyweight", parts("Back"), parts("Biceps"), "Strength"),
		seedEx("Chin-Up", "Weighted Bodyweight", parts("Back"), parts("Biceps"), "Strength"),

		// shoulders
		seedEx("Overhead Press", "Barbell", parts("Shoulders"), parts("Triceps"), "Strength"),
		seedEx("Military Press", "Barbell", parts("Shoulders"), parts("Triceps"), "Strength"),
		seedEx("Upright Row", "Barbell", parts("Shoulders"), parts("Traps"), "Strength"),
		seedEx("Dumbbell Shoulder Press", "Dumbbell", parts("Shoulders"), parts("Triceps"), "Strength"),
		seedEx("Lateral Raise", "Dumbbell", parts("Shoulders"), parts(), "Strength"),
		seedEx("Front Raise", "Dumbbell", parts("Shoulders"), parts(), "Strength"),
		seedEx("Rear Delt Fly", "Dumbbell", parts("Shoulders"), parts(), "Strength"),
		seedEx("Arnold Press", "Dumbbell", parts("Shoulders"), parts("Triceps"), "Strength"),
		seedEx("Dumbbell Shrugs", "Dumbbell", parts("Traps"), parts(), "Strength"),

		// legs
		seedEx("Barbell Squat", "Barbell", parts("Legs"), parts("Glutes"), "Strength"),
		seedEx("Front Squat", "Barbell", parts("Legs"), parts("Core"), "Strength"),
		seedEx("Leg Press", "Machine/Other", parts("Legs"), parts("Glutes"), "Strength"),
		seedEx("Leg Extension", "Machine/Other", parts("Legs"), parts(), "Strength"),
		seedEx("Leg Curl", "Machine/Other", parts("Hamstrings"), parts(), "Strength"),
		seedEx("Hack Squat", "Machine/Other", parts("Legs"), parts("Glutes"), "Strength"),
		seedEx("Calf Raise Machine", "Machine/Other", parts("Calves"), parts(), "Strength"),
		seedEx("Bulgarian Split Squat", "Dumbbell", parts("Legs"), parts("Glutes"), "Strength"),
		seedEx("Walking Lunge", "Dumbbell", parts("Legs"), parts("Glutes"), "Strength"),
		seedEx("Goblet Squat", "Dumbbell", parts("Legs"), parts(), "Strength"),

		// arms
		seedEx("Barbell Curl", "Barbell", parts("Biceps"), parts(), "Strength"),
		seedEx("Close-Grip Bench Press", "Barbell", parts("Triceps"), parts("Chest"), "Strength"),
		seedEx("Skull Crusher", "Barbell", parts("Triceps"), parts(), "Strength"),
		seedEx("Dumbbell Curl", "Dumbbell", parts("Biceps"), parts(), "Strength"),
		seedEx("Hammer Curl", "Dumbbell", parts("Biceps"), parts("Forearms"), "Strength"),
		seedEx("Concentration Curl", "Dumbbell", parts("Biceps"), parts(), "Strength"),
		seedEx("Overhead Tricep Extension", "Dumbbell", parts("Triceps"), parts(), "Strength"),
		seedEx("Preacher Curl", "Machine/Other", parts("Biceps"), parts(), "Strength"),
		seedEx("Cable Curl", "Machine/Other", parts("Biceps"), parts(), "Strength"),
		seedEx("Tricep Pushdown", "Machine/Other", parts("Triceps"), parts(), "Strength"),
		seedEx("Tricep Dips", "Weighted Bodyweight", parts("Triceps"), parts(), "Strength"),
		seedEx("Diamond Push-Up", "Reps Only", parts("Triceps"), parts("Chest"), "Strength"),

		// abs
		seedEx("Crunch", "Reps Only", parts("Abs"), parts(), "Strength"),
		seedEx("Russian Twist", "Reps Only", parts("Abs"), parts("Obliques"), "Strength"),
		seedEx("Leg Raise", "Reps Only", parts("Abs"), parts(), "Strength"),
		seedEx("Bicycle Crunch", "Reps Only", parts("Abs"), parts("Obliques"), "Strength"),
		seedEx("Mountain Climber", "Reps Only", parts("Abs"), parts("Cardio"), "Cardio"),
		seedEx("Plank", "Duration", parts("Abs"), parts("Core"), "Strength"),
		seedEx("Side Plank", "Duration", parts("Obliques"), parts("Core"), "Strength"),
		seedEx("Cable Crunch", "Machine/Other", parts("Abs"), parts(), "Strength"),
		seedEx("Ab Wheel Rollout", "Reps Only", parts("Abs"), parts("Core"), "Strength"),

		// cardio
		seedEx("Running", "Cardio", parts("Cardio"), parts("Legs"), "Cardio"),
		seedEx("Cycling", "Cardio", parts("Cardio"), parts("Legs"), "Cardio"),
		seedEx("Rowing Machine", "Cardio", parts("Cardio"), parts("Back", "Legs"), "Cardio"),
		seedEx("Elliptical", "Cardio", parts("Cardio"), parts("Legs"), "Cardio"),
		seedEx("Jump Rope", "Cardio", parts("Cardio"), parts("Calves"), "Cardio"),

		// full body
		seedEx("Burpee", "Reps Only", parts("Full Body"), parts("Cardio"), "Cardio"),
		seedEx("Kettlebell Swing", "Machine/Other", parts("Full Body"), parts("Glutes"), "Strength"),
		seedEx("Thruster", "Barbell", parts("Full Body"), parts("Legs", "Shoulders"), "Strength"),
		seedEx("Clean and Press", "Barbell", parts("Full Body"), parts("Shoulders", "Legs"), "Strength"),
	}

	for i := range catalogue {
		catalogue[i].CreatedAt = createdAt
	}

	return catalogue
}
