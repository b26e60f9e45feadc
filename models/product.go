package models

// UnknownCategory is stored when a category has no English translation.
const UnknownCategory = "Unknown"

// Product keeps the dataset's column names, including the "lenght" spelling,
// so stores loaded by other tools stay compatible.
type Product struct {
	ID                  string   `bson:"_id" json:"product_id"`
	CategoryName        *string  `bson:"product_category_name" json:"product_category_name"`
	CategoryNameEnglish string   `bson:"product_category_name_english" json:"product_category_name_english"`
	NameLength          *int     `bson:"product_name_lenght" json:"product_name_length"`
	DescriptionLength   *int     `bson:"product_description_lenght" json:"product_description_length"`
	PhotosQty           *int     `bson:"product_photos_qty" json:"product_photos_qty"`
	WeightG             *float64 `bson:"product_weight_g" json:"product_weight_g"`
	LengthCm            *float64 `bson:"product_length_cm" json:"product_length_cm"`
	HeightCm            *float64 `bson:"product_height_cm" json:"product_height_cm"`
	WidthCm             *float64 `bson:"product_width_cm" json:"product_width_cm"`
}
