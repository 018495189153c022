package core

import (
	"strconv"

	"github.com/yashfitness/backend/internal/fitness"
)

// dispatchTool routes a model-requested function call to the matching local
// calculation. The set of tools is closed; an unrecognized name yields an
// error result that flows back into the conversation instead of failing the
// turn. Missing arguments unpack to zero values and the calculation's own
// input checks produce the degraded result.
func dispatchTool(call *ToolCall) fitness.Result {
	switch call.Name {
	case "calculate_bmi":
		return fitness.BMI(numArg(call.Args, "heightCm"), numArg(call.Args, "weightKg"))
	case "calculate_bmr":
		return fitness.BMR(
			numArg(call.Args, "heightCm"),
			numArg(call.Args, "weightKg"),
			numArg(call.Args, "age"),
			strArg(call.Args, "gender"),
		)
	case "calculate_tdee":
		return fitness.TDEE(numArg(call.Args, "bmr"), strArg(call.Args, "activity_level"))
	case "get_calorie_target":
		return fitness.CalorieTarget(numArg(call.Args, "tdee"), strArg(call.Args, "goal"))
	case "get_macro_split":
		return fitness.MacroSplit(numArg(call.Args, "calories"), strArg(call.Args, "goal"))
	default:
		return fitness.Result{"status": "Error: Unknown function requested"}
	}
}

// numArg tolerates the argument value shapes models actually produce:
// JSON numbers, integers and numeric strings.
func numArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func strArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
