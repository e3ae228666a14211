package mysql

// Makes and models joined for the /get_cars listing, stable by make then model.
const listCarModelsSQL = `
SELECT
  cm.name,
  mk.name,
  cm.type,
  cm.year
FROM car_models cm
JOIN car_makes mk ON mk.id = cm.car_make_id
ORDER BY mk.name, cm.name, cm.year
`
